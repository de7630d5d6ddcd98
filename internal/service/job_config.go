package service

import "github.com/learnhub/api/internal/model"

// ManifestFileName is the HLS manifest written at the root of every output prefix.
const ManifestFileName = "manifest.m3u8"

const (
	videoStreamSD = "video-stream0"
	videoStreamHD = "video-stream1"
	audioStream   = "audio-stream0"
	muxStreamSD   = "sd"
	muxStreamHD   = "hd"
)

// BuildJobConfig returns the full job request for one source video. Both the
// upload path and the manual re-transcode path submit exactly this ladder.
func BuildJobConfig(inputURI, outputURI string) *model.JobConfig {
	return &model.JobConfig{
		InputURI:  inputURI,
		OutputURI: outputURI,
		Config: model.EncodingLadder{
			ElementaryStreams: []model.ElementaryStream{
				{
					Key: videoStreamSD,
					VideoStream: &model.VideoStream{H264: model.H264CodecSettings{
						HeightPixels: 360,
						WidthPixels:  640,
						BitrateBps:   550000,
						FrameRate:    60,
					}},
				},
				{
					Key: videoStreamHD,
					VideoStream: &model.VideoStream{H264: model.H264CodecSettings{
						HeightPixels: 720,
						WidthPixels:  1280,
						BitrateBps:   2500000,
						FrameRate:    60,
					}},
				},
				{
					Key:         audioStream,
					AudioStream: &model.AudioStream{Codec: "aac", BitrateBps: 64000},
				},
			},
			MuxStreams: []model.MuxStream{
				{
					Key:               muxStreamSD,
					Container:         "fmp4",
					ElementaryStreams: []string{videoStreamSD, audioStream},
					SegmentSettings:   model.SegmentSettings{IndividualSegments: true},
				},
				{
					Key:               muxStreamHD,
					Container:         "fmp4",
					ElementaryStreams: []string{videoStreamHD, audioStream},
					SegmentSettings:   model.SegmentSettings{IndividualSegments: true},
				},
			},
			Manifests: []model.Manifest{
				{
					FileName:   ManifestFileName,
					Type:       "HLS",
					MuxStreams: []string{muxStreamSD, muxStreamHD},
				},
			},
		},
	}
}
