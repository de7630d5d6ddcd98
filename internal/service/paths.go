package service

import (
	"path"
	"strings"

	"github.com/learnhub/api/internal/config"
)

// Paths derives job URIs and artifact prefixes from object paths.
type Paths struct {
	BucketURI        string
	IntakePrefix     string
	TranscodedPrefix string
}

func NewPaths(cfg *config.Config) Paths {
	return Paths{
		BucketURI:        strings.TrimSuffix(cfg.Storage.BucketURI, "/"),
		IntakePrefix:     cfg.Pipeline.IntakePrefix,
		TranscodedPrefix: cfg.Pipeline.TranscodedPrefix,
	}
}

// IsIntake reports whether an object path lies under the video intake prefix.
func (p Paths) IsIntake(objectPath string) bool {
	return strings.HasPrefix(objectPath, p.IntakePrefix) && len(objectPath) > len(p.IntakePrefix)
}

// InputURI is the job input for an object path.
func (p Paths) InputURI(objectPath string) string {
	return p.BucketURI + "/" + objectPath
}

// OutputPrefix is the object prefix holding every artifact transcoded from
// objectPath, including the trailing slash.
func (p Paths) OutputPrefix(objectPath string) string {
	return p.TranscodedPrefix + path.Base(objectPath) + "/"
}

func (p Paths) OutputURI(objectPath string) string {
	return p.BucketURI + "/" + p.OutputPrefix(objectPath)
}

// ObjectPath strips the bucket URI from a job URI. URIs outside the bucket
// are returned unchanged.
func (p Paths) ObjectPath(uri string) string {
	return strings.TrimPrefix(uri, p.BucketURI+"/")
}

// ManifestURL joins the job output URI with the manifest file name.
func ManifestURL(outputURI string) string {
	return strings.TrimSuffix(outputURI, "/") + "/" + ManifestFileName
}
