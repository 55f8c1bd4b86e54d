// Package annotate is the API spec files use to attach custom metadata to
// the report while a run is in progress.
package annotate

import (
	"errors"
	"fmt"

	"github.com/ethereum-optimism/infra/op-testreport/types"
)

var (
	ErrMissingFilename = errors.New("unable to process event as filename is missing")
	ErrNonStringValue  = errors.New("annotation value must be a string")
	ErrNoActiveTest    = errors.New("test annotations can only be set from inside a running test")
	ErrMissingTestInfo = errors.New("test title, suite title or filename is missing")
)

// Well known annotation keys
const (
	KeyFeature     = "feature"
	KeyCategory    = "category"
	KeySubCategory = "sub_category"
)

// Emitter receives the events a Handler produces. *events.Store and
// *events.Encoder both implement it.
type Emitter interface {
	Append(ev types.RawEvent) error
}

// TestContext identifies the test that is currently running
type TestContext struct {
	Title       string
	ParentTitle string
}

// Handler emits annotations for a single spec file run by worker cid
type Handler struct {
	filename string
	cid      string
	emit     Emitter
}

func NewHandler(filename, cid string, emit Emitter) (*Handler, error) {
	if filename == "" {
		return nil, ErrMissingFilename
	}
	if emit == nil {
		return nil, errors.New("no event emitter")
	}
	return &Handler{filename: filename, cid: cid, emit: emit}, nil
}

func (h *Handler) SetMainFeature(value any) error {
	return h.SetMain(KeyFeature, value)
}

func (h *Handler) SetMainCategory(value any) error {
	return h.SetMain(KeyCategory, value)
}

func (h *Handler) SetMainSubCategory(value any) error {
	return h.SetMain(KeySubCategory, value)
}

// SetMain annotates the root suite of the handler's file
func (h *Handler) SetMain(key string, value any) error {
	s, err := asString(key, value)
	if err != nil {
		return err
	}
	return h.emit.Append(types.NewMainAnnotationEvent(types.MainAnnotation{
		CID:   h.cid,
		File:  h.filename,
		Key:   key,
		Value: s,
	}))
}

func (h *Handler) SetTestFeature(tc *TestContext, value any) error {
	return h.SetTest(tc, KeyFeature, value)
}

func (h *Handler) SetTestCategory(tc *TestContext, value any) error {
	return h.SetTest(tc, KeyCategory, value)
}

func (h *Handler) SetTestSubCategory(tc *TestContext, value any) error {
	return h.SetTest(tc, KeySubCategory, value)
}

// SetTest annotates the running test tc
func (h *Handler) SetTest(tc *TestContext, key string, value any) error {
	if tc == nil {
		return ErrNoActiveTest
	}
	if tc.Title == "" || tc.ParentTitle == "" {
		return ErrMissingTestInfo
	}
	s, err := asString(key, value)
	if err != nil {
		return err
	}
	return h.emit.Append(types.NewTestAnnotationEvent(types.TestAnnotation{
		CID:         h.cid,
		File:        h.filename,
		Title:       tc.Title,
		ParentTitle: tc.ParentTitle,
		Key:         key,
		Value:       s,
	}))
}

func asString(key string, value any) (string, error) {
	s, ok := value.(string)
	if !ok {
		return "", fmt.Errorf("%w: %s got %T", ErrNonStringValue, key, value)
	}
	return s, nil
}
