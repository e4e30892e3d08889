package service

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/mohanatextiles/storefront/internal/errs"
	"github.com/mohanatextiles/storefront/internal/limiter"
	"github.com/mohanatextiles/storefront/internal/model"
	"github.com/mohanatextiles/storefront/internal/repository"
)

/************ admins ************/

type fakeAdmins struct {
	byEmail map[string]*model.Admin

	createErr error
	getErr    error
}

var _ repository.AdminRepository = (*fakeAdmins)(nil)

func (f *fakeAdmins) Create(_ context.Context, a *model.Admin) error {
	if f.createErr != nil {
		return f.createErr
	}
	if f.byEmail == nil {
		f.byEmail = map[string]*model.Admin{}
	}
	if _, ok := f.byEmail[a.Email]; ok {
		return errs.ErrConflict
	}
	cpy := *a
	f.byEmail[a.Email] = &cpy
	return nil
}
func (f *fakeAdmins) GetByID(_ context.Context, id string) (*model.Admin, error) {
	for _, a := range f.byEmail {
		if a.ID == id {
			c := *a
			return &c, nil
		}
	}
	return nil, errs.ErrNotFound
}
func (f *fakeAdmins) GetByEmail(_ context.Context, email string) (*model.Admin, error) {
	if f.getErr != nil {
		return nil, f.getErr
	}
	a, ok := f.byEmail[email]
	if !ok {
		return nil, errs.ErrNotFound
	}
	c := *a
	return &c, nil
}
func (f *fakeAdmins) List(context.Context) ([]model.Admin, error) {
	out := []model.Admin{}
	for _, a := range f.byEmail {
		out = append(out, *a)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Email < out[j].Email })
	return out, nil
}

/************ limiter ************/

type fakeLimiter struct {
	allowOK  bool
	allowErr error

	failBlocked bool

	allowCalls   int
	failureCalls int
	successCalls int
}

var _ limiter.Limiter = (*fakeLimiter)(nil)

func (l *fakeLimiter) Allow(context.Context, string, []byte) (bool, time.Duration, error) {
	l.allowCalls++
	return l.allowOK, 0, l.allowErr
}
func (l *fakeLimiter) Success(context.Context, string, []byte) error {
	l.successCalls++
	return nil
}
func (l *fakeLimiter) Failure(context.Context, string, []byte) (bool, time.Duration, error) {
	l.failureCalls++
	return l.failBlocked, 0, nil
}

/************ products ************/

type fakeProducts struct {
	mu    sync.Mutex
	rows  map[string]*model.Product
	order []string
	clock time.Time
}

var _ repository.ProductRepository = (*fakeProducts)(nil)

func newFakeProducts() *fakeProducts {
	return &fakeProducts{rows: map[string]*model.Product{}, clock: time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)}
}

func (f *fakeProducts) tick() time.Time {
	f.clock = f.clock.Add(time.Second)
	return f.clock
}

func (f *fakeProducts) List(_ context.Context, enabledOnly bool, category string) ([]model.Product, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := []model.Product{}
	for i := len(f.order) - 1; i >= 0; i-- {
		p := f.rows[f.order[i]]
		if p == nil || (enabledOnly && !p.Enabled) || (category != "" && p.Category != category) {
			continue
		}
		out = append(out, *p)
	}
	return out, nil
}
func (f *fakeProducts) Get(_ context.Context, id string) (*model.Product, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	p, ok := f.rows[id]
	if !ok {
		return nil, errs.ErrNotFound
	}
	c := *p
	return &c, nil
}
func (f *fakeProducts) Create(_ context.Context, p *model.Product) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	now := f.tick()
	p.CreatedAt, p.UpdatedAt = now, now
	c := *p
	f.rows[p.ID] = &c
	f.order = append(f.order, p.ID)
	return nil
}
func (f *fakeProducts) Update(_ context.Context, id string, mutate repository.ProductMutator) (*model.Product, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	p, ok := f.rows[id]
	if !ok {
		return nil, errs.ErrNotFound
	}
	c := *p
	if err := mutate(&c); err != nil {
		return nil, err
	}
	c.UpdatedAt = f.tick()
	f.rows[id] = &c
	out := c
	return &out, nil
}
func (f *fakeProducts) SetEnabled(_ context.Context, id string, enabled bool) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	p, ok := f.rows[id]
	if !ok {
		return false, nil
	}
	p.Enabled = enabled
	p.UpdatedAt = f.tick()
	return true, nil
}
func (f *fakeProducts) Delete(_ context.Context, id string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.rows[id]; !ok {
		return false, nil
	}
	delete(f.rows, id)
	return true, nil
}
func (f *fakeProducts) Stats(context.Context) (model.ProductStats, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	st := model.ProductStats{Categories: []string{}}
	seen := map[string]bool{}
	for _, p := range f.rows {
		st.TotalProducts++
		if p.Enabled {
			st.EnabledProducts++
		}
		if !seen[p.Category] {
			seen[p.Category] = true
			st.Categories = append(st.Categories, p.Category)
		}
	}
	sort.Strings(st.Categories)
	return st, nil
}

/************ categories ************/

type fakeCategories struct {
	mu    sync.Mutex
	rows  []*model.Category
	clock time.Time

	batchCalls int
	// beforeBatch runs once inside CreateBatch, e.g. to simulate a racing writer.
	beforeBatch func(f *fakeCategories)
	// batchDelay widens the window for concurrent SeedDefaults callers.
	batchDelay time.Duration
	// batchStarted, when set, is signalled as CreateBatch is entered.
	batchStarted chan struct{}
}

var _ repository.CategoryRepository = (*fakeCategories)(nil)

func (f *fakeCategories) ListEnabled(context.Context) ([]model.Category, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := []model.Category{}
	for _, c := range f.rows {
		if c.Enabled {
			out = append(out, *c)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}
func (f *fakeCategories) ListAll(context.Context) ([]model.Category, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := []model.Category{}
	for i := len(f.rows) - 1; i >= 0; i-- {
		out = append(out, *f.rows[i])
	}
	return out, nil
}
func (f *fakeCategories) find(pred func(*model.Category) bool) (*model.Category, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, c := range f.rows {
		if pred(c) {
			cpy := *c
			return &cpy, nil
		}
	}
	return nil, errs.ErrNotFound
}
func (f *fakeCategories) Get(_ context.Context, id string) (*model.Category, error) {
	return f.find(func(c *model.Category) bool { return c.ID == id })
}
func (f *fakeCategories) GetBySlug(_ context.Context, slug string) (*model.Category, error) {
	return f.find(func(c *model.Category) bool { return c.Slug == slug })
}
func (f *fakeCategories) insertLocked(cs []*model.Category) error {
	for _, c := range cs {
		for _, existing := range f.rows {
			if existing.Slug == c.Slug {
				return errs.ErrConflict
			}
		}
	}
	for _, c := range cs {
		f.clock = f.clock.Add(time.Second)
		c.CreatedAt = f.clock
		cpy := *c
		f.rows = append(f.rows, &cpy)
	}
	return nil
}
func (f *fakeCategories) CreateBatch(ctx context.Context, cs []*model.Category) error {
	if f.batchStarted != nil {
		f.batchStarted <- struct{}{}
	}
	if f.batchDelay > 0 {
		time.Sleep(f.batchDelay)
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.batchCalls++
	if f.beforeBatch != nil {
		hook := f.beforeBatch
		f.beforeBatch = nil
		hook(f)
	}
	return f.insertLocked(cs)
}
func (f *fakeCategories) Update(_ context.Context, c *model.Category) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i, existing := range f.rows {
		if existing.ID == c.ID {
			cpy := *c
			f.rows[i] = &cpy
			return nil
		}
	}
	return errs.ErrNotFound
}
func (f *fakeCategories) Delete(_ context.Context, id string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i, c := range f.rows {
		if c.ID == id {
			f.rows = append(f.rows[:i], f.rows[i+1:]...)
			return true, nil
		}
	}
	return false, nil
}

/************ settings ************/

type fakeSettings struct {
	row *model.SiteSettings
}

var _ repository.SettingsRepository = (*fakeSettings)(nil)

func (f *fakeSettings) GetOrCreate(_ context.Context, d model.SiteSettings) (model.SiteSettings, error) {
	if f.row == nil {
		f.row = &d
	}
	return *f.row, nil
}
func (f *fakeSettings) Update(ctx context.Context, d model.SiteSettings, patch model.SettingsPatch) (model.SiteSettings, error) {
	s, _ := f.GetOrCreate(ctx, d)
	patch.Apply(&s)
	f.row = &s
	return s, nil
}
