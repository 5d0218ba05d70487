package publish

import (
	"errors"
	"fmt"
	"mime"
	"strings"

	"structkit/pkg/flyweight"
)

// ErrUnsupportedFormat is returned for content types that cannot be parsed.
var ErrUnsupportedFormat = errors.New("publish: unsupported format")

// FormatKey is the intrinsic identity of a Format.
type FormatKey struct {
	MediaType string
	Charset   string
}

// Format describes a content type. Formats are shared between every
// document using the same FormatKey and are never modified after creation.
type Format struct {
	key        FormatKey
	extensions []string
	textual    bool
}

// Key returns the format identity.
func (f *Format) Key() FormatKey { return f.key }

// Extensions returns the file extensions registered for the media type.
func (f *Format) Extensions() []string { return append([]string(nil), f.extensions...) }

// Textual reports whether documents of this format are text.
func (f *Format) Textual() bool { return f.textual }

// ContentType renders the canonical Content-Type value.
func (f *Format) ContentType() string {
	if f.key.Charset == "" {
		return f.key.MediaType
	}
	return mime.FormatMediaType(f.key.MediaType, map[string]string{"charset": f.key.Charset})
}

// Header formats a listing line for the document name, which is supplied
// per call and not stored.
func (f *Format) Header(name string) string {
	return name + ": " + f.ContentType()
}

func buildFormat(key FormatKey) (Format, error) {
	major, minor, ok := strings.Cut(key.MediaType, "/")
	if !ok || major == "" || minor == "" {
		return Format{}, fmt.Errorf("%w: %q", ErrUnsupportedFormat, key.MediaType)
	}
	exts, _ := mime.ExtensionsByType(key.MediaType)
	return Format{
		key:        key,
		extensions: exts,
		textual:    major == "text" || key.Charset != "",
	}, nil
}

// Formats hands out shared Format values.
type Formats struct {
	factory *flyweight.Factory[FormatKey, Format]
}

// NewFormats returns an empty format registry.
func NewFormats(opts ...flyweight.Option[FormatKey]) (*Formats, error) {
	f, err := flyweight.NewFactory(buildFormat, opts...)
	if err != nil {
		return nil, err
	}
	return &Formats{factory: f}, nil
}

// Get returns the shared format for key.
func (fs *Formats) Get(key FormatKey) (*Format, error) {
	return fs.factory.Get(key)
}

// Lookup parses a Content-Type value and returns its shared format. Case
// and parameter order do not matter; parameters other than charset are ignored.
func (fs *Formats) Lookup(contentType string) (*Format, error) {
	mediaType, params, err := mime.ParseMediaType(contentType)
	if err != nil {
		return nil, fmt.Errorf("%w: %q: %v", ErrUnsupportedFormat, contentType, err)
	}
	return fs.Get(FormatKey{MediaType: mediaType, Charset: strings.ToLower(params["charset"])})
}

// Len returns how many distinct formats have been created.
func (fs *Formats) Len() int { return fs.factory.Len() }
