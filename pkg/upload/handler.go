package upload

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/morezero/jaxon/pkg/errdefs"
	"github.com/morezero/jaxon/pkg/events"
	"github.com/morezero/jaxon/pkg/i18n"
	"github.com/morezero/jaxon/pkg/options"
	"github.com/morezero/jaxon/pkg/request"
	"github.com/morezero/jaxon/pkg/response"
)

const logPrefix = "upload:handler"

// PluginName is the name the handler registers under.
const PluginName = "upload"

// DefaultTTL is how long an upload record stays readable.
const DefaultTTL = 10 * time.Minute

// Result is the return value of an HTTP-only upload.
type Result struct {
	Code    string `json:"code"`
	Token   string `json:"upl,omitempty"`
	Message string `json:"msg,omitempty"`
}

// NewHandlerParams holds the collaborators of a Handler.
type NewHandlerParams struct {
	Options    *options.Options
	Store      TempStore
	Signer     *Signer
	TTL        time.Duration
	Translator i18n.Translator
	Publisher  events.EventPublisher
	Sanitizer  Sanitizer
}

// Handler serves requests that carry files or an upload token. When a call
// owns the request the handler only attaches the files; otherwise it stores
// them and answers with a token.
type Handler struct {
	opts       *options.Options
	store      TempStore
	signer     *Signer
	ttl        time.Duration
	translator i18n.Translator
	publisher  events.EventPublisher
	sanitizer  Sanitizer
	now        func() time.Time
}

// NewHandler creates a Handler.
func NewHandler(p NewHandlerParams) *Handler {
	h := &Handler{
		opts:       p.Options,
		store:      p.Store,
		signer:     p.Signer,
		ttl:        p.TTL,
		translator: p.Translator,
		publisher:  p.Publisher,
		sanitizer:  p.Sanitizer,
		now:        time.Now,
	}
	if h.opts == nil {
		h.opts = options.Default()
	}
	if h.signer == nil {
		h.signer = NewSigner(nil)
	}
	if h.ttl <= 0 {
		h.ttl = DefaultTTL
	}
	if h.translator == nil {
		h.translator = i18n.Default()
	}
	if h.publisher == nil {
		h.publisher = &events.NoOpPublisher{}
	}
	if h.sanitizer == nil {
		h.sanitizer = Slugify
	}
	return h
}

// Name returns the plugin name.
func (h *Handler) Name() string { return PluginName }

// SetSanitizer replaces the file name sanitizer.
func (h *Handler) SetSanitizer(s Sanitizer) {
	if s != nil {
		h.sanitizer = s
	}
}

func (h *Handler) enabled() bool {
	return h.opts.Bool("core.upload.enabled", true)
}

func token(rc *request.Context) string {
	v, _ := rc.Value(request.FieldUpload)
	return v
}

// CanProcessRequest reports whether rc carries files or an upload token.
func (h *Handler) CanProcessRequest(rc *request.Context) bool {
	if !h.enabled() {
		return false
	}
	return rc.HasFiles() || token(rc) != ""
}

// PreprocessRequest attaches the uploaded files to a request owned by a
// callable.
func (h *Handler) PreprocessRequest(ctx context.Context, rc *request.Context) error {
	files, err := h.resolve(ctx, rc)
	if err != nil {
		return err
	}
	attachFiles(rc, files)
	if token(rc) == "" {
		h.publish(ctx, "", files)
	}
	return nil
}

// ProcessRequest serves an upload that is not a call: the files are stored
// under a new token returned to the client. Failures are reported in the
// return value and the request still counts as handled.
func (h *Handler) ProcessRequest(ctx context.Context, rc *request.Context, resp *response.Response) error {
	files, err := h.resolve(ctx, rc)
	if err != nil {
		resp.SetReturnValue(h.errorResult(err))
		return nil
	}
	attachFiles(rc, files)

	if tok := token(rc); tok != "" {
		resp.SetReturnValue(Result{Code: "success", Token: tok})
		return nil
	}

	tok, err := h.persist(ctx, files)
	if err != nil {
		h.removeStored(files)
		resp.SetReturnValue(h.errorResult(err))
		return nil
	}
	h.publish(ctx, tok, files)
	resp.SetReturnValue(Result{Code: "success", Token: tok})
	return nil
}

func (h *Handler) errorResult(err error) Result {
	msg := h.translator.Trans(i18n.ErrInternal, nil)
	if ue, ok := errdefs.AsUploadError(err); ok {
		msg = ue.Message
	}
	slog.Warn(fmt.Sprintf("%s - upload failed: %v", logPrefix, err))
	return Result{Code: "error", Message: msg}
}

func (h *Handler) resolve(ctx context.Context, rc *request.Context) (map[string][]*File, error) {
	if tok := token(rc); tok != "" {
		return h.Load(ctx, tok)
	}
	return h.save(rc)
}

// Load returns the files stored under tok. Records stay readable until they
// expire; expired records are deleted on access.
func (h *Handler) Load(ctx context.Context, tok string) (map[string][]*File, error) {
	invalid := &errdefs.UploadError{Message: h.translator.Trans(i18n.ErrUploadToken, nil)}

	id, err := h.signer.Verify(tok)
	if err != nil {
		invalid.Err = err
		return nil, invalid
	}
	if h.store == nil {
		invalid.Err = errors.New("no upload store configured")
		return nil, invalid
	}

	rec, err := h.store.Load(ctx, id)
	if err != nil {
		invalid.Err = err
		return nil, invalid
	}
	if rec.Expired(h.now()) {
		if err := h.store.Delete(ctx, id); err != nil {
			slog.Warn(fmt.Sprintf("%s - failed to delete expired record %s: %v", logPrefix, id, err))
		}
		invalid.Err = ErrTokenNotFound
		return nil, invalid
	}

	files, err := Unflatten(rec.Entries)
	if err != nil {
		invalid.Err = err
		return nil, invalid
	}
	return files, nil
}

// save validates the received parts and copies them to their upload
// directories. On failure, files already copied are removed.
func (h *Handler) save(rc *request.Context) (map[string][]*File, error) {
	parts := rc.Files()
	fields := make([]string, 0, len(parts))
	for field := range parts {
		fields = append(fields, field)
	}
	sort.Strings(fields)

	files := make(map[string][]*File)
	for _, field := range fields {
		rules := RulesFor(h.opts, field)
		for _, part := range parts[field] {
			name := SafeBaseName(h.sanitizer(baseName(part.Filename), field))
			f := NewFile(part, rules.Dir, name)

			if err := rules.Check(field, f, h.translator); err != nil {
				h.removeStored(files)
				return nil, err
			}
			if err := os.MkdirAll(filepath.Dir(f.Path), 0o755); err != nil {
				h.removeStored(files)
				return nil, &errdefs.UploadError{
					Field:   field,
					Message: h.translator.Trans(i18n.ErrUploadDir, map[string]string{"dir": rules.Dir}),
					Err:     err,
				}
			}
			if err := f.store(part); err != nil {
				h.removeStored(files)
				return nil, &errdefs.UploadError{
					Field:   field,
					Message: h.translator.Trans(i18n.ErrUploadCopy, map[string]string{"name": part.Filename}),
					Err:     err,
				}
			}
			files[field] = append(files[field], f)
		}
	}
	return files, nil
}

func (h *Handler) persist(ctx context.Context, files map[string][]*File) (string, error) {
	if h.store == nil {
		return "", fmt.Errorf("%s - no upload store configured", logPrefix)
	}
	tok, id := h.signer.Issue()
	now := h.now()
	rec := &StoredRecord{Entries: Flatten(files), CreatedAt: now, ExpiresAt: now.Add(h.ttl)}
	if err := h.store.Save(ctx, id, rec); err != nil {
		return "", fmt.Errorf("%s - failed to save upload record: %w", logPrefix, err)
	}
	slog.Debug(fmt.Sprintf("%s - stored %d field(s) under %s", logPrefix, len(files), id))
	return tok, nil
}

func (h *Handler) removeStored(files map[string][]*File) {
	for _, list := range files {
		for _, f := range list {
			if err := os.Remove(f.Path); err != nil && !errors.Is(err, os.ErrNotExist) {
				slog.Warn(fmt.Sprintf("%s - failed to remove %s: %v", logPrefix, f.Path, err))
			}
		}
	}
}

func (h *Handler) publish(ctx context.Context, tok string, files map[string][]*File) {
	ev := &events.UploadedEvent{Token: tok, Timestamp: h.now().UTC().Format(time.RFC3339)}
	for field, list := range files {
		ev.Fields = append(ev.Fields, field)
		for _, f := range list {
			ev.Files++
			ev.Bytes += f.Size
		}
	}
	sort.Strings(ev.Fields)
	if err := h.publisher.PublishUploaded(ctx, ev); err != nil {
		slog.Warn(fmt.Sprintf("%s - failed to publish upload event: %v", logPrefix, err))
	}
}

// Purge deletes the records expired now.
func (h *Handler) Purge(ctx context.Context) (int64, error) {
	if h.store == nil {
		return 0, nil
	}
	n, err := h.store.Purge(ctx, h.now())
	if err != nil {
		return 0, fmt.Errorf("%s - purge failed: %w", logPrefix, err)
	}
	if n > 0 {
		slog.Info(fmt.Sprintf("%s - purged %d expired upload record(s)", logPrefix, n))
	}
	return n, nil
}
