package services

import (
	"context"
	"sync"
	"testing"

	"gorm.io/gorm"

	"github.com/virtuos/siddata-backend/internal/db/dbtest"
	"github.com/virtuos/siddata-backend/internal/logger"
	"github.com/virtuos/siddata-backend/internal/repos"
	"github.com/virtuos/siddata-backend/internal/siddata"
	"github.com/virtuos/siddata-backend/internal/types"
)

type fixture struct {
	db           *gorm.DB
	origins      repos.OriginRepo
	users        repos.UserRepo
	recommenders repos.RecommenderRepo
	enrollments  repos.EnrollmentRepo
	goals        repos.GoalRepo
	activities   repos.ActivityRepo

	origin     *types.Origin
	user       *types.User
	rec        *types.Recommender
	enrollment *types.Enrollment
	goal       *types.Goal
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	gormDB := dbtest.Open(t)
	log := logger.NewNop()
	ctx := context.Background()

	fx := &fixture{
		db:           gormDB,
		origins:      repos.NewOriginRepo(gormDB, log),
		users:        repos.NewUserRepo(gormDB, log),
		recommenders: repos.NewRecommenderRepo(gormDB, log),
		enrollments:  repos.NewEnrollmentRepo(gormDB, log),
		goals:        repos.NewGoalRepo(gormDB, log),
		activities:   repos.NewActivityRepo(gormDB, log),
	}

	fx.origin = &types.Origin{Name: "Universität Osnabrück", Endpoint: "uos", APIKey: "hashed"}
	if err := fx.origins.Create(ctx, nil, fx.origin); err != nil {
		t.Fatalf("create origin: %v", err)
	}
	user, _, err := fx.users.FindOrCreate(ctx, nil, fx.origin.ID, "student-1")
	if err != nil {
		t.Fatalf("create user: %v", err)
	}
	user.DataRegulations = true
	if err := fx.users.Update(ctx, nil, user); err != nil {
		t.Fatalf("update user: %v", err)
	}
	fx.user = user

	fx.rec, err = fx.recommenders.FindOrCreate(ctx, nil, &types.Recommender{
		Name: "Testplugin", ClassName: "RMFake", Order: 1, Active: true,
	})
	if err != nil {
		t.Fatalf("create recommender: %v", err)
	}
	fx.enrollment, err = fx.enrollments.FindOrCreate(ctx, nil, fx.user.ID, fx.rec.ID)
	if err != nil {
		t.Fatalf("create enrollment: %v", err)
	}
	if err := fx.enrollments.SetEnabled(ctx, nil, fx.enrollment.ID, true); err != nil {
		t.Fatalf("enable enrollment: %v", err)
	}
	fx.goal, _, err = fx.goals.FindOrCreate(ctx, nil, &types.Goal{
		EnrollmentID: fx.enrollment.ID, Title: "Testziel", Visible: true,
	})
	if err != nil {
		t.Fatalf("create goal: %v", err)
	}
	return fx
}

// newActivity persists one instance activity under the fixture goal.
func (fx *fixture) newActivity(t *testing.T, status string) *types.Activity {
	t.Helper()
	a, _, err := fx.activities.FindOrCreateInstance(context.Background(), nil, &types.Activity{
		GoalID: &fx.goal.ID, Title: "Testaktivität", Status: status,
	}, false)
	if err != nil {
		t.Fatalf("create activity: %v", err)
	}
	return a
}

// fakePlugin counts hook invocations and fails or panics on demand.
type fakePlugin struct {
	mu        sync.Mutex
	className string
	order     int
	active    bool

	processErr   error
	refreshErr   error
	batchErr      error
	panicOn      string
	processCalls int
	refreshCalls int
	cronCalls    int
	tmplCalls    int
	initCalls    int
}

func (p *fakePlugin) Name() string        { return p.className }
func (p *fakePlugin) ClassName() string   { return p.className }
func (p *fakePlugin) Active() bool        { return p.active }
func (p *fakePlugin) Order() int          { return p.order }
func (p *fakePlugin) Description() string { return "" }
func (p *fakePlugin) DataInfo() string    { return "" }

func (p *fakePlugin) hit(hook string, count *int) {
	p.mu.Lock()
	*count++
	p.mu.Unlock()
	if p.panicOn == hook {
		panic("boom in " + hook)
	}
}

func (p *fakePlugin) InitializeTemplates(ctx context.Context) error {
	p.hit("InitializeTemplates", &p.tmplCalls)
	return p.batchErr
}

func (p *fakePlugin) Initialize(ctx context.Context, user *types.User) error {
	p.hit("Initialize", &p.initCalls)
	return nil
}

func (p *fakePlugin) ProcessActivity(ctx context.Context, activity *types.Activity) error {
	p.hit("ProcessActivity", &p.processCalls)
	return p.processErr
}

func (p *fakePlugin) ExecuteCronFunctions(ctx context.Context) error {
	p.hit("ExecuteCronFunctions", &p.cronCalls)
	return p.batchErr
}

func (p *fakePlugin) Refresh(ctx context.Context) error {
	p.hit("Refresh", &p.refreshCalls)
	return p.refreshErr
}

func (p *fakePlugin) calls(count *int) int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return *count
}

// fakeRegistry serves a fixed plugin set.
type fakeRegistry struct {
	plugins []*fakePlugin
}

func (r *fakeRegistry) Get(className string) (siddata.Plugin, bool) {
	for _, p := range r.plugins {
		if p.className == className {
			return p, true
		}
	}
	return nil, false
}

func (r *fakeRegistry) ActivePlugins() []siddata.Plugin {
	out := make([]siddata.Plugin, 0, len(r.plugins))
	for _, p := range r.plugins {
		if p.active {
			out = append(out, p)
		}
	}
	return out
}

func (r *fakeRegistry) InitializeUser(ctx context.Context, user *types.User) error {
	return nil
}
