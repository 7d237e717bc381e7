package models

import (
	"fmt"
	"path"
	"strings"
	"time"
	"unicode"
)

// Backend groups a storage endpoint and the directory layout used with one partner.
//
// The remote side is expected to look like:
//
//	input
//	 |- pending
//	 |- done
//	 |- error
//	output
//	 |- pending
//	 |- done
//	 |- error
//
// Each of the six directories is configurable and may be empty.
type Backend struct {
	ID   uint   `gorm:"primaryKey" json:"id" yaml:"-"`
	Name string `gorm:"type:varchar(255);not null;uniqueIndex" json:"name" yaml:"name"`
	// BackendType selects the output generator (e.g. "gs1").
	BackendType string `gorm:"type:varchar(64)" json:"backend_type" yaml:"backend_type"`
	// StorageKind selects the storage gateway implementation (e.g. "s3", "fs").
	StorageKind string `gorm:"type:varchar(32);not null" json:"storage_kind" yaml:"storage_kind"`
	// StorageLocation is the bucket (s3) or root directory (fs).
	StorageLocation string `gorm:"type:varchar(512)" json:"storage_location" yaml:"storage_location"`

	InputDirPending  string `gorm:"type:varchar(512)" json:"input_dir_pending" yaml:"input_dir_pending"`
	InputDirDone     string `gorm:"type:varchar(512)" json:"input_dir_done" yaml:"input_dir_done"`
	InputDirError    string `gorm:"type:varchar(512)" json:"input_dir_error" yaml:"input_dir_error"`
	OutputDirPending string `gorm:"type:varchar(512)" json:"output_dir_pending" yaml:"output_dir_pending"`
	OutputDirDone    string `gorm:"type:varchar(512)" json:"output_dir_done" yaml:"output_dir_done"`
	OutputDirError   string `gorm:"type:varchar(512)" json:"output_dir_error" yaml:"output_dir_error"`

	CreatedAt time.Time `json:"created_at" yaml:"-"`
	UpdatedAt time.Time `json:"updated_at" yaml:"-"`
}

// TableName overrides the table name.
func (Backend) TableName() string {
	return "edi_backends"
}

// DirFor returns the configured directory for the given direction and remote state.
// Unknown directions or states are programming errors and are reported, never defaulted.
func (b *Backend) DirFor(direction Direction, state RemoteState) (string, error) {
	if !direction.Valid() {
		return "", fmt.Errorf("%w: %q", ErrInvalidDirection, direction)
	}
	if !state.Valid() {
		return "", fmt.Errorf("%w: %q", ErrInvalidRemoteState, state)
	}

	var dir string
	switch direction {
	case DirectionInput:
		switch state {
		case RemotePending:
			dir = b.InputDirPending
		case RemoteDone:
			dir = b.InputDirDone
		case RemoteError:
			dir = b.InputDirError
		}
	case DirectionOutput:
		switch state {
		case RemotePending:
			dir = b.OutputDirPending
		case RemoteDone:
			dir = b.OutputDirDone
		case RemoteError:
			dir = b.OutputDirError
		}
	}
	return strings.TrimSpace(dir), nil
}

// RemotePath resolves the storage path of filename for the given direction and state.
// Paths always use forward slashes. An empty directory yields the bare filename.
func (b *Backend) RemotePath(direction Direction, state RemoteState, filename string) (string, error) {
	dir, err := b.DirFor(direction, state)
	if err != nil {
		return "", err
	}

	name := strings.TrimFunc(filename, func(r rune) bool {
		return r == '/' || unicode.IsSpace(r)
	})
	if name == "" {
		return "", ErrEmptyFilename
	}

	// Directories may be written with backslashes on Windows hosts.
	dir = strings.ReplaceAll(dir, `\`, "/")
	return path.Join(dir, name), nil
}

// Dirs returns every configured, non-empty directory keyed by "direction/state".
func (b *Backend) Dirs() map[string]string {
	dirs := make(map[string]string)
	for _, d := range []Direction{DirectionInput, DirectionOutput} {
		for _, s := range []RemoteState{RemotePending, RemoteDone, RemoteError} {
			dir, _ := b.DirFor(d, s)
			if dir != "" {
				dirs[string(d)+"/"+string(s)] = dir
			}
		}
	}
	return dirs
}
