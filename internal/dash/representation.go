package dash

import (
	"errors"
	"fmt"
	"net/url"
	"strconv"
)

// ErrNoSegmentIndex is returned by segment queries on a single-segment
// representation whose segment index has not been loaded yet.
var ErrNoSegmentIndex = errors.New("segment index not loaded")

// Format describes the encoded media of a representation.
type Format struct {
	ID        string
	Bitrate   int64
	MimeType  string
	Codecs    string
	Width     int
	Height    int
	FrameRate float64
	Language  string
}

// BaseURL is a BaseURL element resolved against its parents.
type BaseURL struct {
	URL             string
	ServiceLocation string
	Priority        int
	Weight          int
}

// Kind tells single-segment representations from multi-segment ones.
type Kind int

const (
	KindSingle Kind = iota
	KindMulti
)

func (k Kind) String() string {
	if k == KindSingle {
		return "single"
	}
	return "multi"
}

// RepresentationParams holds the attributes common to every representation.
type RepresentationParams struct {
	RevisionID int64
	Format     Format
	BaseURLs   []BaseURL
	// CacheKey defaults to "<format id>.<revision id>".
	CacheKey string
	// ContentLength is the size of a single-segment resource, if known.
	ContentLength *int64
	// StreamIndex is the position of the representation in its adaptation set.
	StreamIndex int
}

// Representation is one encoded variant of a track together with its
// segment index. It is immutable once built.
type Representation struct {
	revisionID               int64
	format                   Format
	baseURLs                 []BaseURL
	segmentBase              SegmentBase
	kind                     Kind
	cacheKey                 string
	streamIndex              int
	contentLength            int64
	presentationTimeOffsetUs int64
	initialization           *ByteRange
	indexRange               *ByteRange
	index                    SegmentIndex
}

// NewRepresentation builds a representation of the shape the segment base
// calls for.
func NewRepresentation(p RepresentationParams, base SegmentBase) (*Representation, error) {
	switch b := base.(type) {
	case *SingleSegmentBase:
		return NewSingleSegmentRepresentation(p, b)
	case *SegmentListBase:
		return NewMultiSegmentRepresentation(p, b)
	case *SegmentTemplateBase:
		return NewMultiSegmentRepresentation(p, b)
	default:
		return nil, fmt.Errorf("unsupported segment base %T: %w", base, ErrInvalidSegmentBase)
	}
}

// NewSingleSegmentRepresentation builds a representation stored as one
// resource. Without an index range the whole resource is its only segment;
// with one, the index must be supplied later through WithChunkIndex.
func NewSingleSegmentRepresentation(p RepresentationParams, base *SingleSegmentBase) (*Representation, error) {
	if base == nil {
		return nil, fmt.Errorf("nil single segment base: %w", ErrInvalidSegmentBase)
	}
	r, err := newRepresentation(p, base, KindSingle)
	if err != nil {
		return nil, err
	}
	r.initialization = base.Initialization()
	r.indexRange = base.IndexRange()
	if r.indexRange == nil {
		r.index = newSingleSegmentIndex(NewByteRange("", 0, r.contentLength))
	}
	return r, nil
}

// MultiSegmentSource is implemented by *SegmentListBase and *SegmentTemplateBase.
type MultiSegmentSource interface {
	SegmentBase
	multi() *MultiSegmentBase
}

// NewMultiSegmentRepresentation builds a representation whose segments are
// described by a segment list or template.
func NewMultiSegmentRepresentation(p RepresentationParams, base MultiSegmentSource) (*Representation, error) {
	ms, ok := base.(multiSegment)
	if !ok || base == nil {
		return nil, fmt.Errorf("unsupported multi segment base %T: %w", base, ErrInvalidSegmentBase)
	}
	r, err := newRepresentation(p, base, KindMulti)
	if err != nil {
		return nil, err
	}
	if tb, ok := base.(*SegmentTemplateBase); ok {
		r.initialization = tb.InitializationFor(r.format)
	} else {
		r.initialization = base.Initialization()
	}
	r.index = newMultiSegmentIndex(ms, r.format)
	return r, nil
}

func newRepresentation(p RepresentationParams, base SegmentBase, kind Kind) (*Representation, error) {
	if len(p.BaseURLs) == 0 {
		return nil, fmt.Errorf("representation %q has no base url: %w", p.Format.ID, ErrInvalidSegmentBase)
	}
	cacheKey := p.CacheKey
	if cacheKey == "" {
		cacheKey = p.Format.ID + "." + strconv.FormatInt(p.RevisionID, 10)
	}
	contentLength := LengthUnbounded
	if p.ContentLength != nil && *p.ContentLength >= 0 {
		contentLength = *p.ContentLength
	}
	return &Representation{
		revisionID:               p.RevisionID,
		format:                   p.Format,
		baseURLs:                 append([]BaseURL(nil), p.BaseURLs...),
		segmentBase:              base,
		kind:                     kind,
		cacheKey:                 cacheKey,
		streamIndex:              p.StreamIndex,
		contentLength:            contentLength,
		presentationTimeOffsetUs: base.PresentationTimeOffsetUs(),
	}, nil
}

// RevisionID returns the manifest revision the representation belongs to.
func (r *Representation) RevisionID() int64 { return r.revisionID }

// Format returns the media format of the representation.
func (r *Representation) Format() Format { return r.format }

// Kind reports whether the representation is a single or multi segment one.
func (r *Representation) Kind() Kind { return r.kind }

// SegmentBase returns the segment base the representation was built from.
func (r *Representation) SegmentBase() SegmentBase { return r.segmentBase }

// CacheKey returns the key identifying the representation across reloads.
func (r *Representation) CacheKey() string { return r.cacheKey }

// StreamIndex returns the position of the representation in its adaptation
// set as declared in the manifest.
func (r *Representation) StreamIndex() int { return r.streamIndex }

// ContentLength returns the resource size of a single-segment
// representation, or LengthUnbounded.
func (r *Representation) ContentLength() int64 { return r.contentLength }

// PresentationTimeOffsetUs returns the presentation time offset in microseconds.
func (r *Representation) PresentationTimeOffsetUs() int64 { return r.presentationTimeOffsetUs }

// BaseURLs returns a copy of the base urls, in priority order.
func (r *Representation) BaseURLs() []BaseURL {
	return append([]BaseURL(nil), r.baseURLs...)
}

// SegmentIndex returns the segment index, or nil for a single-segment
// representation whose index has not been loaded.
func (r *Representation) SegmentIndex() SegmentIndex {
	return r.index
}

// InitializationRange returns the initialization segment location, if any.
func (r *Representation) InitializationRange() *ByteRange {
	if r.initialization == nil {
		return nil
	}
	init := *r.initialization
	return &init
}

// IndexRange returns the segment index location of a single-segment
// representation, if declared.
func (r *Representation) IndexRange() *ByteRange {
	if r.indexRange == nil {
		return nil
	}
	ir := *r.indexRange
	return &ir
}

// WithChunkIndex returns a copy of a single-segment representation whose
// segment index is backed by chunks.
func (r *Representation) WithChunkIndex(chunks ChunkIndex) (*Representation, error) {
	if r.kind != KindSingle {
		return nil, fmt.Errorf("representation %q is not single segment: %w", r.format.ID, ErrInvalidSegmentBase)
	}
	if err := chunks.Validate(); err != nil {
		return nil, err
	}
	c := *r
	c.index = newChunkSegmentIndex(chunks, r.presentationTimeOffsetUs)
	return &c, nil
}

// SegmentURL returns the unresolved location of segment n.
func (r *Representation) SegmentURL(n int64) (ByteRange, error) {
	if r.index == nil {
		return ByteRange{}, fmt.Errorf("representation %q: %w", r.format.ID, ErrNoSegmentIndex)
	}
	return r.index.SegmentURL(n)
}

// ResolveSegmentURL resolves the location of segment n against the first base url.
func (r *Representation) ResolveSegmentURL(n int64) (*url.URL, error) {
	br, err := r.SegmentURL(n)
	if err != nil {
		return nil, err
	}
	return br.Resolve(r.baseURLs[0].URL)
}

// ResolveInitializationURL resolves the initialization segment location
// against the first base url. It returns nil when there is none.
func (r *Representation) ResolveInitializationURL() (*url.URL, error) {
	if r.initialization == nil {
		return nil, nil
	}
	return r.initialization.Resolve(r.baseURLs[0].URL)
}
