package simplemenu

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/tendant/simple-menu/pkg/simplemenu/objectkey"
	"github.com/tendant/simple-menu/pkg/simplemenu/visibility"
)

const imageMimeType = "image/jpeg"

// service implements the Service interface
type service struct {
	store          BlobStore
	visibility     VisibilityStore
	normalizer     Normalizer
	maxUploadBytes int64
	cacheTTL       time.Duration
	now            func() time.Time
	logger         *slog.Logger
	cache          *Cache
}

// Option represents a functional option for configuring the service
type Option func(*service)

// WithBlobStore sets the remote object store
func WithBlobStore(store BlobStore) Option {
	return func(s *service) {
		s.store = store
	}
}

// WithVisibilityStore sets the visibility store
func WithVisibilityStore(store VisibilityStore) Option {
	return func(s *service) {
		s.visibility = store
	}
}

// WithNormalizer sets the image normalizer
func WithNormalizer(n Normalizer) Option {
	return func(s *service) {
		s.normalizer = n
	}
}

// WithMaxUploadBytes sets the per-file size cap
func WithMaxUploadBytes(limit int64) Option {
	return func(s *service) {
		s.maxUploadBytes = limit
	}
}

// WithCacheTTL sets how long zone listings are cached
func WithCacheTTL(ttl time.Duration) Option {
	return func(s *service) {
		s.cacheTTL = ttl
	}
}

// WithClock overrides the time source of the listing cache
func WithClock(now func() time.Time) Option {
	return func(s *service) {
		s.now = now
	}
}

// WithLogger sets the logger
func WithLogger(logger *slog.Logger) Option {
	return func(s *service) {
		s.logger = logger
	}
}

// New creates a new service instance with the given options
func New(options ...Option) (Service, error) {
	s := &service{
		normalizer:     NewNormalizer(),
		maxUploadBytes: DefaultMaxUploadBytes,
		cacheTTL:       DefaultCacheTTL,
		now:            time.Now,
		logger:         slog.Default(),
	}

	for _, option := range options {
		option(s)
	}

	if s.store == nil {
		return nil, fmt.Errorf("blob store is required")
	}
	if s.visibility == nil {
		s.visibility = visibility.New(visibility.WithLogger(s.logger))
	}
	s.cache = NewCache(s.fetchListings, s.cacheTTL, s.now)

	return s, nil
}

func (s *service) fetchListings(ctx context.Context) (map[Zone]ZoneListing, error) {
	listings := make(map[Zone]ZoneListing, len(Zones))
	for _, zone := range Zones {
		objects, err := s.store.List(ctx, zone.Prefix())
		if err != nil {
			return nil, upstream("list", zone.Prefix(), err)
		}
		listings[zone] = objects
	}
	s.logger.Debug("Fetched zone listings", "zones", len(listings))
	return listings, nil
}

// Catalog operations

func (s *service) Catalog(ctx context.Context) (*Catalog, error) {
	snap, err := s.cache.Get(ctx)
	if err != nil {
		return nil, err
	}
	return BuildCatalog(snap, s.visibility), nil
}

func (s *service) InvalidateCache() {
	s.cache.Invalidate()
}

// Image operations

func (s *service) Upload(ctx context.Context, req UploadRequest) ([]UploadResult, error) {
	if !req.Zone.Valid() {
		return nil, &ValidationError{Field: "zone", Reason: fmt.Sprintf("unknown zone %q", req.Zone)}
	}
	if len(req.Files) == 0 {
		return nil, &ValidationError{Field: "files", Reason: "at least one file is required", Err: ErrNoFiles}
	}

	filenames := make([]string, len(req.Files))
	for i, f := range req.Files {
		if err := validateExtension(f.Filename); err != nil {
			return nil, err
		}
		if err := validateSize(f.Filename, f.Size, s.maxUploadBytes); err != nil {
			return nil, err
		}
		filenames[i] = f.Filename
	}
	names, err := ResolveNames(req.CustomName, filenames)
	if err != nil {
		return nil, err
	}

	defer s.cache.Invalidate()

	results := make([]UploadResult, 0, len(req.Files))
	for i, f := range req.Files {
		result, err := s.storeImage(ctx, req.Zone, names[i], f)
		if err != nil {
			s.logger.Error("Failed to upload menu image", "zone", req.Zone, "name", names[i], "err", err)
			return results, err
		}
		results = append(results, *result)
		s.logger.Info("Uploaded menu image", "key", result.Key, "size", result.Size)
	}
	return results, nil
}

func (s *service) Replace(ctx context.Context, req ReplaceRequest) (*UploadResult, error) {
	if !req.Zone.Valid() {
		return nil, &ValidationError{Field: "zone", Reason: fmt.Sprintf("unknown zone %q", req.Zone)}
	}
	if err := validateName("name", req.Name); err != nil {
		return nil, err
	}
	if err := validateExtension(req.File.Filename); err != nil {
		return nil, err
	}

	key := req.Zone.Key(req.Name)
	if _, err := s.store.GetObjectMeta(ctx, key); err != nil {
		return nil, upstream("stat", key, err)
	}

	defer s.cache.Invalidate()

	result, err := s.storeImage(ctx, req.Zone, req.Name, req.File)
	if err != nil {
		s.logger.Error("Failed to replace menu image", "key", key, "err", err)
		return nil, err
	}
	s.logger.Info("Replaced menu image", "key", key, "size", result.Size)
	return result, nil
}

func (s *service) storeImage(ctx context.Context, zone Zone, name string, f UploadFile) (*UploadResult, error) {
	data, err := readLimited(f, s.maxUploadBytes)
	if err != nil {
		return nil, err
	}
	normalized, err := s.normalizer.Normalize(bytes.NewReader(data))
	if err != nil {
		return nil, err
	}

	key := zone.Key(name)
	params := UploadParams{ObjectKey: key, MimeType: imageMimeType}
	if err := s.store.UploadWithParams(ctx, bytes.NewReader(normalized), params); err != nil {
		return nil, upstream("upload", key, err)
	}
	return &UploadResult{Name: name, Key: key, Size: len(normalized)}, nil
}

func (s *service) OpenImage(ctx context.Context, key string) (io.ReadCloser, *ObjectMeta, error) {
	if !isZoneKey(key) {
		return nil, nil, &NotFoundError{Key: key}
	}
	meta, err := s.store.GetObjectMeta(ctx, key)
	if err != nil {
		return nil, nil, upstream("stat", key, err)
	}
	rc, err := s.store.Download(ctx, key)
	if err != nil {
		return nil, nil, upstream("download", key, err)
	}
	return rc, meta, nil
}

func isZoneKey(key string) bool {
	for _, zone := range Zones {
		if _, ok := objectkey.BaseName(string(zone), key); ok {
			return true
		}
	}
	return false
}

// Multi-zone operations

func (s *service) Rename(ctx context.Context, from, to string) (*Outcome, error) {
	if err := validatePair(from, to); err != nil {
		return nil, err
	}
	defer s.cache.Invalidate()

	outcome := &Outcome{Op: "rename", Name: from, Target: to}
	for _, zone := range Zones {
		fromKey, toKey := zone.Key(from), zone.Key(to)
		err := s.store.Rename(ctx, fromKey, toKey)
		switch {
		case err == nil:
			outcome.ok(zone, toKey)
		case IsNotFound(err):
			outcome.skipped(zone, fromKey)
		default:
			outcome.failed(zone, fromKey, upstream("rename", fromKey, err))
		}
	}

	if len(outcome.Zones(ZoneStatusOK)) > 0 {
		if err := s.visibility.Rename(ctx, from, to); err != nil {
			s.logger.Warn("Failed to move visibility settings", "from", from, "to", to, "err", err)
		}
	}

	s.logOutcome(outcome)
	return outcome, nil
}

func (s *service) Duplicate(ctx context.Context, from, to string) (*Outcome, error) {
	if err := validatePair(from, to); err != nil {
		return nil, err
	}
	defer s.cache.Invalidate()

	outcome := &Outcome{Op: "duplicate", Name: from, Target: to}
	for _, zone := range Zones {
		fromKey, toKey := zone.Key(from), zone.Key(to)
		data, err := s.fetch(ctx, fromKey)
		if IsNotFound(err) {
			outcome.skipped(zone, fromKey)
			continue
		}
		if err != nil {
			outcome.failed(zone, fromKey, upstream("download", fromKey, err))
			continue
		}
		params := UploadParams{ObjectKey: toKey, MimeType: imageMimeType}
		if err := s.store.UploadWithParams(ctx, bytes.NewReader(data), params); err != nil {
			outcome.failed(zone, toKey, upstream("upload", toKey, err))
			continue
		}
		outcome.ok(zone, toKey)
	}

	if len(outcome.Zones(ZoneStatusOK)) > 0 {
		if err := s.visibility.Set(ctx, to, s.visibility.Get(from)); err != nil {
			s.logger.Warn("Failed to copy visibility settings", "from", from, "to", to, "err", err)
		}
	}

	s.logOutcome(outcome)
	return outcome, nil
}

func (s *service) fetch(ctx context.Context, key string) ([]byte, error) {
	rc, err := s.store.Download(ctx, key)
	if err != nil {
		return nil, err
	}
	defer rc.Close()
	return io.ReadAll(rc)
}

func (s *service) Delete(ctx context.Context, name string) (*Outcome, error) {
	if err := validateName("name", name); err != nil {
		return nil, err
	}
	defer s.cache.Invalidate()

	outcome := &Outcome{Op: "delete", Name: name}
	for _, zone := range Zones {
		key := zone.Key(name)
		err := s.store.Delete(ctx, key)
		switch {
		case err == nil:
			outcome.ok(zone, key)
		case IsNotFound(err):
			outcome.skipped(zone, key)
		default:
			outcome.failed(zone, key, upstream("delete", key, err))
		}
	}

	s.logOutcome(outcome)
	return outcome, nil
}

func validatePair(from, to string) error {
	if err := validateName("name", from); err != nil {
		return err
	}
	if err := validateName("new_name", to); err != nil {
		return err
	}
	if from == to {
		return &ValidationError{Field: "new_name", Reason: "new name must differ from the current name"}
	}
	return nil
}

func (s *service) logOutcome(o *Outcome) {
	attrs := []any{"op", o.Op, "name", o.Name, "status", o.Status()}
	if o.Target != "" {
		attrs = append(attrs, "target", o.Target)
	}
	for _, r := range o.Results {
		if r.Err != nil {
			attrs = append(attrs, string(r.Zone), r.Err)
		}
	}
	if o.Status() == StatusSuccess {
		s.logger.Info("Menu operation finished", attrs...)
		return
	}
	s.logger.Warn("Menu operation finished with errors", attrs...)
}

// Visibility operations

func (s *service) GetVisibility(name string) Visibility {
	return s.visibility.Get(name)
}

func (s *service) SetVisibility(ctx context.Context, name string, record Visibility) error {
	if err := validateName("name", name); err != nil {
		return err
	}
	defer s.cache.Invalidate()

	if err := s.visibility.Set(ctx, name, record); err != nil {
		return &UpstreamError{Op: "save_visibility", Key: objectkey.SidecarKey, Err: err}
	}
	s.logger.Info("Updated visibility", "name", name, "visibility", record)
	return nil
}
