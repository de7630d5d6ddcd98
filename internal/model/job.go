package model

// JobConfig is the transcoding request submitted to the job service.
type JobConfig struct {
	InputURI  string         `json:"inputUri"`
	OutputURI string         `json:"outputUri"`
	Config    EncodingLadder `json:"config"`
}

// EncodingLadder describes renditions, muxing and manifests of a job.
type EncodingLadder struct {
	ElementaryStreams []ElementaryStream `json:"elementaryStreams"`
	MuxStreams        []MuxStream        `json:"muxStreams"`
	Manifests         []Manifest         `json:"manifests"`
}

// ElementaryStream holds exactly one of VideoStream or AudioStream.
type ElementaryStream struct {
	Key         string       `json:"key"`
	VideoStream *VideoStream `json:"videoStream,omitempty"`
	AudioStream *AudioStream `json:"audioStream,omitempty"`
}

type VideoStream struct {
	H264 H264CodecSettings `json:"h264"`
}

type H264CodecSettings struct {
	HeightPixels int     `json:"heightPixels"`
	WidthPixels  int     `json:"widthPixels"`
	BitrateBps   int     `json:"bitrateBps"`
	FrameRate    float64 `json:"frameRate"`
}

type AudioStream struct {
	Codec      string `json:"codec"`
	BitrateBps int    `json:"bitrateBps"`
}

type MuxStream struct {
	Key               string          `json:"key"`
	Container         string          `json:"container"`
	ElementaryStreams []string        `json:"elementaryStreams"`
	SegmentSettings   SegmentSettings `json:"segmentSettings"`
}

type SegmentSettings struct {
	IndividualSegments bool `json:"individualSegments"`
}

type Manifest struct {
	FileName   string   `json:"fileName"`
	Type       string   `json:"type"`
	MuxStreams []string `json:"muxStreams"`
}

// Job states reported by the job service.
const (
	JobStateSucceeded = "SUCCEEDED"
	JobStateFailed    = "FAILED"
	JobStateRunning   = "RUNNING"
	JobStatePending   = "PENDING"
)
