// Package favorites keeps a user's local favorites collection consistent with
// the favorites store under concurrent requests.
package favorites

import (
	"context"
	"fmt"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"github.com/al3xb0/mindpal-task/internal/auth"
	apierrors "github.com/al3xb0/mindpal-task/internal/errors"
	"github.com/al3xb0/mindpal-task/internal/model"
	"github.com/al3xb0/mindpal-task/internal/store"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Outcome describes how a favorites operation ended.
type Outcome string

const (
	OutcomeAdded            Outcome = "added"
	OutcomeRemoved          Outcome = "removed"
	OutcomeNotFavorite      Outcome = "not_favorite"
	OutcomeInProgress       Outcome = "in_progress"
	OutcomeRateLimited      Outcome = "rate_limited"
	OutcomeAuthError        Outcome = "auth_error"
	OutcomeAuthRequired     Outcome = "auth_required"
	OutcomeStoreError       Outcome = "store_error"
	OutcomeInvalidCharacter Outcome = "invalid_character"
	OutcomeInternal         Outcome = "internal_error"

	// OutcomeRetired means the store call finished after the engine was
	// closed. The remote change may have happened; local state was not touched.
	OutcomeRetired Outcome = "retired"
)

// Result is the outcome of ToggleFavorite or RemoveFavorite. Favorite is set
// for successful adds and removes.
type Result struct {
	Outcome      Outcome              `json:"outcome"`
	Favorite     *model.FavoriteEntry `json:"favorite,omitempty"`
	Notification *model.Notification  `json:"notification,omitempty"`
}

// Observer receives one observation per toggle or remove.
type Observer interface {
	ObserveFavoriteOp(op string, outcome string)
}

// Options configures an Engine.
type Options struct {
	// Cooldown between operations on the same character. Zero means DefaultCooldown.
	Cooldown time.Duration
	// StoreTimeout bounds each store call. Zero means no extra bound.
	StoreTimeout time.Duration
	Observer     Observer
	Now          func() time.Time
	NewID        func() string
}

// Engine owns one user's local favorites collection. The collection changes
// only after the store confirms a mutation, and operations on the same
// character are serialized by a Gate.
type Engine struct {
	store        store.Store
	identity     auth.Identity
	gate         *Gate
	storeTimeout time.Duration
	observer     Observer
	now          func() time.Time
	newID        func() string
	logger       *zap.Logger

	mu        sync.RWMutex
	favorites []model.FavoriteEntry
	version   uint64
	loading   bool
	lastErr   error

	notifier atomic.Pointer[notifierCell]
	closed   atomic.Bool
}

// NewEngine creates an engine with an empty collection. Call Refetch to load it.
func NewEngine(s store.Store, identity auth.Identity, logger *zap.Logger, opts Options) *Engine {
	if opts.Cooldown == 0 {
		opts.Cooldown = DefaultCooldown
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.NewID == nil {
		opts.NewID = uuid.NewString
	}

	return &Engine{
		store:        s,
		identity:     identity,
		gate:         NewGate(opts.Cooldown, opts.Now),
		storeTimeout: opts.StoreTimeout,
		observer:     opts.Observer,
		now:          opts.Now,
		newID:        opts.NewID,
		logger:       logger,
	}
}

// SetNotifier replaces the notifier used by every later notification,
// including those of operations already in flight.
func (e *Engine) SetNotifier(n Notifier) {
	if n == nil {
		e.notifier.Store(nil)
		return
	}
	e.notifier.Store(&notifierCell{notifier: n})
}

// Close retires the engine. Operations completing afterwards leave the
// collection untouched and send no notifications.
func (e *Engine) Close() {
	e.closed.Store(true)
}

// Closed reports whether Close was called.
func (e *Engine) Closed() bool {
	return e.closed.Load()
}

// Refetch replaces the collection with the user's stored favorites, newest
// first. With nobody logged in the collection becomes empty. On failure the
// previous collection is kept and Err reports the failure. A snapshot taken
// before a confirmed add or remove is discarded.
func (e *Engine) Refetch(ctx context.Context) error {
	e.mu.Lock()
	e.loading = true
	e.lastErr = nil
	startVersion := e.version
	e.mu.Unlock()

	list, err := e.fetch(ctx)

	e.mu.Lock()
	defer e.mu.Unlock()
	e.loading = false

	if e.closed.Load() {
		return nil
	}
	if err != nil {
		e.lastErr = err
		e.logger.Warn("favorites refetch failed", zap.Error(err))
		return err
	}

	if e.version != startVersion {
		// A mutation confirmed after the snapshot was taken is newer than it.
		e.logger.Debug("favorites refetch superseded by a local mutation")
		return nil
	}
	e.favorites = list
	return nil
}

func (e *Engine) fetch(ctx context.Context) ([]model.FavoriteEntry, error) {
	userID, err := e.identity.CurrentUser(ctx)
	if err != nil {
		return nil, apierrors.New(apierrors.KindAuthRequired, "Failed to get user: "+err.Error(), err)
	}
	if userID == "" {
		return []model.FavoriteEntry{}, nil
	}

	sctx, cancel := e.storeContext(ctx)
	defer cancel()

	list, err := e.store.List(sctx, userID)
	if err != nil {
		return nil, apierrors.Store("Failed to fetch favorites: "+err.Error(), err)
	}
	if list == nil {
		list = []model.FavoriteEntry{}
	}
	return list, nil
}

// Favorites returns a copy of the collection, newest first.
func (e *Engine) Favorites() []model.FavoriteEntry {
	e.mu.RLock()
	defer e.mu.RUnlock()

	out := make([]model.FavoriteEntry, len(e.favorites))
	copy(out, e.favorites)
	return out
}

// IsFavorite reports whether the character is in the local collection.
func (e *Engine) IsFavorite(characterID int) bool {
	e.mu.RLock()
	defer e.mu.RUnlock()

	for _, f := range e.favorites {
		if f.CharacterID == characterID {
			return true
		}
	}
	return false
}

// Loading reports whether a Refetch is running.
func (e *Engine) Loading() bool {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.loading
}

// Err returns the failure of the last Refetch, if any.
func (e *Engine) Err() error {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.lastErr
}

// ToggleFavorite adds the character if it is not a favorite and removes it
// otherwise. A second toggle while the first is pending is ignored. Store
// failures end in a notification and leave the collection unchanged.
func (e *Engine) ToggleFavorite(ctx context.Context, c model.Character) (res Result) {
	defer e.observe("toggle", &res)
	defer e.recoverInto("toggle", &res)

	characterID, err := strconv.Atoi(c.ID)
	if err != nil {
		return e.result(OutcomeInvalidCharacter, nil, invalidCharacterNotice())
	}

	if res, ok := e.precheck(characterID); !ok {
		return res
	}

	userID, res, ok := e.resolveUser(ctx)
	if !ok {
		return res
	}

	if res, ok := e.acquire(characterID); !ok {
		return res
	}
	defer e.gate.Release(characterID)

	// Membership may have changed while the user was being resolved.
	if e.IsFavorite(characterID) {
		return e.remove(ctx, userID, characterID, c.Name)
	}
	return e.add(ctx, userID, characterID, c)
}

// RemoveFavorite removes the character if it is a favorite and does nothing otherwise.
func (e *Engine) RemoveFavorite(ctx context.Context, c model.Character) (res Result) {
	defer e.observe("remove", &res)
	defer e.recoverInto("remove", &res)

	characterID, err := strconv.Atoi(c.ID)
	if err != nil {
		return e.result(OutcomeInvalidCharacter, nil, invalidCharacterNotice())
	}

	if !e.IsFavorite(characterID) {
		return Result{Outcome: OutcomeNotFavorite}
	}
	if res, ok := e.precheck(characterID); !ok {
		return res
	}

	userID, res, ok := e.resolveUser(ctx)
	if !ok {
		return res
	}

	if res, ok := e.acquire(characterID); !ok {
		return res
	}
	defer e.gate.Release(characterID)

	if !e.IsFavorite(characterID) {
		return Result{Outcome: OutcomeNotFavorite}
	}
	return e.remove(ctx, userID, characterID, c.Name)
}

// precheck answers busy and cooling-down characters before the identity
// lookup. It is advisory; acquire makes the binding decision.
func (e *Engine) precheck(characterID int) (Result, bool) {
	if e.gate.InFlight(characterID) {
		return Result{Outcome: OutcomeInProgress}, false
	}
	if e.gate.IsRateLimited(characterID) {
		return e.result(OutcomeRateLimited, nil, rateLimitedNotice()), false
	}
	return Result{}, true
}

// acquire takes the gate. On success the caller must Release it.
func (e *Engine) acquire(characterID int) (Result, bool) {
	switch e.gate.TryAcquire(characterID) {
	case Admitted:
		return Result{}, true
	case RejectedRateLimited:
		return e.result(OutcomeRateLimited, nil, rateLimitedNotice()), false
	default:
		return Result{Outcome: OutcomeInProgress}, false
	}
}

func (e *Engine) resolveUser(ctx context.Context) (string, Result, bool) {
	userID, err := e.identity.CurrentUser(ctx)
	if err != nil {
		e.logger.Warn("identity lookup failed", zap.Error(err))
		return "", e.result(OutcomeAuthError, nil, authErrorNotice()), false
	}
	if userID == "" {
		return "", e.result(OutcomeAuthRequired, nil, authRequiredNotice()), false
	}
	return userID, Result{}, true
}

// add inserts the character. The caller holds the gate.
func (e *Engine) add(ctx context.Context, userID string, characterID int, c model.Character) Result {
	fav := model.NewFavorite{
		UserID:           userID,
		CharacterID:      characterID,
		CharacterName:    c.Name,
		CharacterImage:   c.Image,
		CharacterStatus:  c.Status,
		CharacterSpecies: c.Species,
		CreatedAt:        e.now().UTC(),
	}

	sctx, cancel := e.storeContext(ctx)
	id, err := e.store.Insert(sctx, fav)
	cancel()

	if err != nil {
		e.logger.Warn("failed to add favorite",
			zap.String("user_id", userID),
			zap.Int("character_id", characterID),
			zap.Error(err),
		)
		return e.result(OutcomeStoreError, nil, addFailedNotice())
	}

	if id == "" {
		id = model.ProvisionalIDPrefix + e.newID()
	}
	entry := fav.Entry(id)

	if !e.apply(func(list []model.FavoriteEntry) []model.FavoriteEntry {
		out := make([]model.FavoriteEntry, 0, len(list)+1)
		out = append(out, entry)
		for _, f := range list {
			if f.CharacterID != characterID {
				out = append(out, f)
			}
		}
		return out
	}) {
		return Result{Outcome: OutcomeRetired}
	}

	return e.result(OutcomeAdded, &entry, addedNotice(c.Name))
}

// remove deletes the character. The caller holds the gate.
func (e *Engine) remove(ctx context.Context, userID string, characterID int, name string) Result {
	if name == "" {
		name = e.nameOf(characterID)
	}

	sctx, cancel := e.storeContext(ctx)
	err := e.store.Delete(sctx, userID, characterID)
	cancel()

	if err != nil {
		e.logger.Warn("failed to remove favorite",
			zap.String("user_id", userID),
			zap.Int("character_id", characterID),
			zap.Error(err),
		)
		return e.result(OutcomeStoreError, nil, removeFailedNotice())
	}

	var removed *model.FavoriteEntry
	if !e.apply(func(list []model.FavoriteEntry) []model.FavoriteEntry {
		out := make([]model.FavoriteEntry, 0, len(list))
		for i := range list {
			if list[i].CharacterID == characterID {
				removed = &list[i]
				continue
			}
			out = append(out, list[i])
		}
		return out
	}) {
		return Result{Outcome: OutcomeRetired}
	}

	return e.result(OutcomeRemoved, removed, removedNotice(name))
}

// apply swaps in a new collection built from the current one. It returns
// false without touching state when the engine has been retired.
func (e *Engine) apply(update func([]model.FavoriteEntry) []model.FavoriteEntry) bool {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.closed.Load() {
		return false
	}
	e.favorites = update(e.favorites)
	e.version++
	return true
}

func (e *Engine) nameOf(characterID int) string {
	e.mu.RLock()
	defer e.mu.RUnlock()

	for _, f := range e.favorites {
		if f.CharacterID == characterID {
			return f.CharacterName
		}
	}
	return ""
}

// storeContext detaches a store call from its caller: a caller that goes away
// does not abort a remote mutation. Only storeTimeout bounds the call.
func (e *Engine) storeContext(ctx context.Context) (context.Context, context.CancelFunc) {
	ctx = context.WithoutCancel(ctx)
	if e.storeTimeout > 0 {
		return context.WithTimeout(ctx, e.storeTimeout)
	}
	return context.WithCancel(ctx)
}

// result delivers the notification and packs it into a Result. Retired
// engines deliver nothing.
func (e *Engine) result(outcome Outcome, fav *model.FavoriteEntry, n model.Notification) Result {
	if e.closed.Load() {
		return Result{Outcome: OutcomeRetired}
	}
	if cell := e.notifier.Load(); cell != nil {
		cell.notifier.Notify(n)
	}
	return Result{Outcome: outcome, Favorite: fav, Notification: &n}
}

func (e *Engine) recoverInto(op string, res *Result) {
	r := recover()
	if r == nil {
		return
	}
	e.logger.Error("favorites operation panicked",
		zap.String("op", op),
		zap.String("panic", fmt.Sprint(r)),
	)
	*res = e.result(OutcomeInternal, nil, unexpectedNotice())
}

func (e *Engine) observe(op string, res *Result) {
	if e.observer != nil {
		e.observer.ObserveFavoriteOp(op, string(res.Outcome))
	}
}
