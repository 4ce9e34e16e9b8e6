package evidence

import (
	"errors"
	"fmt"
)

var (
	ErrAlreadyComplete = errors.New("all evidence photos already stored")
	ErrUnknownSlot     = errors.New("unknown evidence slot")
	ErrFileExists      = errors.New("file already exists")
)

type ErrDownloadFailed struct {
	Err error
}

func (e *ErrDownloadFailed) Error() string {
	return fmt.Sprintf("failed to download file: %s", e.Err)
}

func (e *ErrDownloadFailed) Unwrap() error {
	return e.Err
}

type ErrPrepareFilepath struct {
	Err error
}

func (e *ErrPrepareFilepath) Error() string {
	return fmt.Sprintf("failed to prepare file path: %s", e.Err)
}

func (e *ErrPrepareFilepath) Unwrap() error {
	return e.Err
}
