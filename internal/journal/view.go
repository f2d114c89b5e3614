package journal

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"skill-journal/internal/analytics"
	"skill-journal/internal/docstore"
	"skill-journal/internal/domain/skill"
	"skill-journal/internal/session"
)

// Update is the complete state a client renders. Every change produces a new one.
type Update struct {
	Identity        *session.Identity     `json:"identity"`
	Loading         bool                  `json:"loading"`
	Skills          []skill.Skill         `json:"skills"`
	Entries         []skill.ProgressEntry `json:"entries"`
	SelectedSkillID string                `json:"selectedSkillId,omitempty"`
	Selected        []skill.ProgressEntry `json:"selected"`
	Summary         analytics.Summary     `json:"summary"`
	Mode            analytics.DisplayMode `json:"mode"`
	Chart           analytics.Dataset     `json:"chart"`
}

type ViewOption func(*View)

func WithClock(now func() time.Time) ViewOption {
	return func(v *View) { v.now = now }
}

func WithLogger(l *slog.Logger) ViewOption {
	return func(v *View) { v.log = l }
}

// WithAutoSelect selects the head of the skill list when a user is bound with
// nothing selected. It fires once per bind; an explicit SelectSkill cancels it.
func WithAutoSelect() ViewOption {
	return func(v *View) { v.autoSelect = true }
}

// View follows the signed-in user: on every identity change it drops all live
// lists and opens new ones for the new user, and it recomputes the dashboard
// after every list change.
type View struct {
	ctx      context.Context
	provider *session.Provider
	docs     docstore.Store
	emit     func(Update)
	now      func() time.Time
	log      *slog.Logger

	emitMu sync.Mutex

	mu         sync.Mutex
	identity   *session.Identity
	skills     *SkillStore
	entries    *ProgressStore
	selected   *ProgressStore
	selectedID string
	mode       analytics.DisplayMode
	autoSelect bool
	autoPick   bool
	gen        uint64
	selGen     uint64
	closed     bool
	stopAuth   func()
}

func NewView(ctx context.Context, p *session.Provider, docs docstore.Store, emit func(Update), opts ...ViewOption) *View {
	v := &View{
		ctx:      ctx,
		provider: p,
		docs:     docs,
		emit:     emit,
		now:      time.Now,
		log:      slog.Default(),
		mode:     analytics.DefaultDisplayMode,
	}
	for _, opt := range opts {
		opt(v)
	}
	v.log = v.log.With(slog.String("component", "journal.view"))

	stop := p.Subscribe(v.bind)
	v.mu.Lock()
	v.stopAuth = stop
	v.mu.Unlock()

	if p.Loading() {
		v.publish()
		return v
	}
	if id, ok := p.Current(); ok {
		v.bind(&id)
	} else {
		v.bind(nil)
	}
	return v
}

// Skills returns the write side for the signed-in user, or nil when signed out.
func (v *View) Skills() *SkillStore {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.skills
}

// Progress returns the all-entries store of the signed-in user, or nil.
func (v *View) Progress() *ProgressStore {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.entries
}

// SelectSkill narrows the selected-entries list to id. An empty id clears it.
func (v *View) SelectSkill(id string) {
	v.mu.Lock()
	if v.closed {
		v.mu.Unlock()
		return
	}
	old, next := v.selectLocked(id)
	v.mu.Unlock()
	v.swapSelected(old, next)
}

func (v *View) selectLocked(id string) (old, next *ProgressStore) {
	old = v.selected
	v.selected = nil
	v.selectedID = id
	v.autoPick = false
	v.selGen++
	if v.identity != nil && id != "" {
		next = v.openSelectedLocked()
	}
	return old, next
}

func (v *View) swapSelected(old, next *ProgressStore) {
	if old != nil {
		old.Close()
	}
	if next != nil {
		v.start(next)
	}
	v.publish()
}

func (v *View) SetDisplayMode(mode analytics.DisplayMode) {
	v.mu.Lock()
	v.mode = mode
	v.mu.Unlock()
	v.publish()
}

// Current builds the state without emitting it.
func (v *View) Current() Update {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.updateLocked()
}

func (v *View) Close() {
	v.mu.Lock()
	if v.closed {
		v.mu.Unlock()
		return
	}
	v.closed = true
	v.gen++
	stop := v.stopAuth
	stores := v.detachLocked()
	v.mu.Unlock()

	if stop != nil {
		stop()
	}
	closeAll(stores)
}

func (v *View) bind(id *session.Identity) {
	v.mu.Lock()
	if v.closed {
		v.mu.Unlock()
		return
	}
	old := v.detachLocked()
	v.gen++
	v.selGen++
	if id == nil || v.identity == nil || v.identity.UserID != id.UserID {
		v.selectedID = ""
	}
	v.identity = id
	v.autoPick = v.autoSelect && id != nil && v.selectedID == ""

	var fresh []liveList
	if id != nil {
		gen := v.gen
		v.skills = NewSkillStore(v.docs, id.UserID, v.log)
		v.skills.OnChange(func(items []skill.Skill) { v.skillsChanged(gen, items) })
		v.entries = NewProgressStore(v.docs, id.UserID, "", v.log)
		v.entries.OnChange(func([]skill.ProgressEntry) { v.changed(gen, 0) })
		fresh = append(fresh, v.skills, v.entries)
		if v.selectedID != "" {
			fresh = append(fresh, v.openSelectedLocked())
		}
	}
	v.mu.Unlock()

	closeAll(old)
	for _, l := range fresh {
		v.start(l)
	}
	v.publish()
}

// openSelectedLocked must be called with v.mu held and an identity bound.
func (v *View) openSelectedLocked() *ProgressStore {
	gen, selGen := v.gen, v.selGen
	v.selected = NewProgressStore(v.docs, v.identity.UserID, v.selectedID, v.log)
	v.selected.OnChange(func([]skill.ProgressEntry) { v.changed(gen, selGen) })
	return v.selected
}

type liveList interface {
	Start(ctx context.Context) error
	Close()
}

func closeAll(lists []liveList) {
	for _, l := range lists {
		l.Close()
	}
}

func (v *View) detachLocked() []liveList {
	var out []liveList
	if v.skills != nil {
		out = append(out, v.skills)
	}
	if v.entries != nil {
		out = append(out, v.entries)
	}
	if v.selected != nil {
		out = append(out, v.selected)
	}
	v.skills, v.entries, v.selected = nil, nil, nil
	return out
}

func (v *View) skillsChanged(gen uint64, items []skill.Skill) {
	v.mu.Lock()
	if v.closed || gen != v.gen || !v.autoPick || v.selectedID != "" || len(items) == 0 {
		v.mu.Unlock()
		v.changed(gen, 0)
		return
	}
	old, next := v.selectLocked(items[0].ID)
	v.mu.Unlock()
	v.swapSelected(old, next)
}

// changed republishes unless the callback comes from a store this view has
// already replaced. selGen 0 marks the identity-wide stores.
func (v *View) changed(gen, selGen uint64) {
	v.mu.Lock()
	stale := gen != v.gen || (selGen != 0 && selGen != v.selGen)
	v.mu.Unlock()
	if stale {
		return
	}
	v.publish()
}

func (v *View) publish() {
	v.emitMu.Lock()
	defer v.emitMu.Unlock()

	v.mu.Lock()
	if v.closed {
		v.mu.Unlock()
		return
	}
	u := v.updateLocked()
	v.mu.Unlock()

	if v.emit != nil {
		v.emit(u)
	}
}

func (v *View) updateLocked() Update {
	u := Update{
		Loading:         v.provider.Loading(),
		Skills:          []skill.Skill{},
		Entries:         []skill.ProgressEntry{},
		Selected:        []skill.ProgressEntry{},
		SelectedSkillID: v.selectedID,
		Mode:            v.mode,
	}
	if v.identity != nil {
		id := *v.identity
		u.Identity = &id
	}
	if v.skills != nil {
		u.Skills = v.skills.Items()
	}
	if v.entries != nil {
		u.Entries = v.entries.Items()
	}
	if v.selected != nil {
		u.Selected = v.selected.Items()
	}
	u.Summary = analytics.Summarize(u.Skills, u.Entries, v.now())
	u.Chart = analytics.BuildDataset(v.mode, u.Skills, u.Entries)
	return u
}

func (v *View) start(l liveList) {
	if err := l.Start(v.ctx); err != nil && !errors.Is(err, ErrClosed) {
		v.log.Error("start live list failed", slog.Any("error", err))
	}
}
