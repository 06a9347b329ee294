package service

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"classbell/config"
	"classbell/internal/alarm"
	"classbell/internal/model"
	"classbell/internal/repository"
	pkgerrors "classbell/pkg/errors"
	"classbell/pkg/jwt"
)

// ── Mock UserRepository ──

type mockUserRepo struct {
	users map[string]*model.User
}

func newMockUserRepo() *mockUserRepo {
	return &mockUserRepo{users: make(map[string]*model.User)}
}

func (m *mockUserRepo) Create(_ context.Context, user *model.User) error {
	if user.UserID == "" {
		user.UserID = "user-" + user.Username
	}
	m.users[user.UserID] = user
	return nil
}

func (m *mockUserRepo) GetByID(_ context.Context, id string) (*model.User, error) {
	if u, ok := m.users[id]; ok {
		return u, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockUserRepo) GetByUsername(_ context.Context, username string) (*model.User, error) {
	for _, u := range m.users {
		if u.Username == username {
			return u, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockUserRepo) ListAll(_ context.Context) ([]model.User, error) {
	var result []model.User
	for _, u := range m.users {
		result = append(result, *u)
	}
	return result, nil
}

// ── Mock CourseRepository ──

type mockCourseRepo struct {
	courses map[string]*model.Course
	seq     int
}

func newMockCourseRepo() *mockCourseRepo {
	return &mockCourseRepo{courses: make(map[string]*model.Course)}
}

func (m *mockCourseRepo) Create(_ context.Context, c *model.Course) error {
	if c.CourseID == "" {
		m.seq++
		c.CourseID = fmt.Sprintf("course-%d", m.seq)
	}
	if c.Version == 0 {
		c.Version = 1
	}
	cp := *c
	m.courses[c.CourseID] = &cp
	return nil
}

func (m *mockCourseRepo) GetByID(_ context.Context, id string) (*model.Course, error) {
	if c, ok := m.courses[id]; ok {
		cp := *c
		return &cp, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockCourseRepo) GetByUserAndID(ctx context.Context, userID, id string) (*model.Course, error) {
	c, err := m.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if c.UserID != userID {
		return nil, gorm.ErrRecordNotFound
	}
	return c, nil
}

func (m *mockCourseRepo) ListAll(_ context.Context) ([]model.Course, error) {
	var result []model.Course
	for _, c := range m.courses {
		result = append(result, *c)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].CourseID < result[j].CourseID })
	return result, nil
}

func (m *mockCourseRepo) ListByUser(ctx context.Context, userID string) ([]model.Course, error) {
	all, _ := m.ListAll(ctx)
	var result []model.Course
	for _, c := range all {
		if c.UserID == userID {
			result = append(result, c)
		}
	}
	return result, nil
}

func (m *mockCourseRepo) Update(_ context.Context, c *model.Course) error {
	stored, ok := m.courses[c.CourseID]
	if !ok || stored.Version != c.Version {
		return pkgerrors.ErrOptimisticLock
	}
	c.Version++
	cp := *c
	m.courses[c.CourseID] = &cp
	return nil
}

func (m *mockCourseRepo) Delete(_ context.Context, id string, _ string) error {
	delete(m.courses, id)
	return nil
}

// ── Mock SettingRepository ──

type mockSettingRepo struct {
	settings map[string]*model.UserSetting
}

func newMockSettingRepo() *mockSettingRepo {
	return &mockSettingRepo{settings: make(map[string]*model.UserSetting)}
}

func (m *mockSettingRepo) Get(_ context.Context, userID string) (*model.UserSetting, error) {
	if s, ok := m.settings[userID]; ok {
		cp := *s
		return &cp, nil
	}
	return model.DefaultUserSetting(userID), nil
}

func (m *mockSettingRepo) Upsert(_ context.Context, s *model.UserSetting) error {
	cp := *s
	if old, ok := m.settings[s.UserID]; ok {
		cp.LastSyncAt = old.LastSyncAt
	}
	m.settings[s.UserID] = &cp
	return nil
}

func (m *mockSettingRepo) ListAutoSyncUserIDs(_ context.Context) ([]string, error) {
	var ids []string
	for id, s := range m.settings {
		if s.AutoSync {
			ids = append(ids, id)
		}
	}
	sort.Strings(ids)
	return ids, nil
}

func (m *mockSettingRepo) TouchLastSync(ctx context.Context, userID string, at time.Time) error {
	s, _ := m.Get(ctx, userID)
	s.LastSyncAt = &at
	m.settings[userID] = s
	return nil
}

// ── Mock CalendarEventRepository ──

type mockCalendarEventRepo struct {
	events []model.CalendarEvent
}

func (m *mockCalendarEventRepo) ReplaceByMarker(_ context.Context, userID, marker string, events []model.CalendarEvent) (int64, error) {
	var kept []model.CalendarEvent
	var removed int64
	for _, e := range m.events {
		if e.UserID == userID && e.Marker == marker {
			removed++
			continue
		}
		kept = append(kept, e)
	}
	for i := range events {
		events[i].UserID = userID
		events[i].Marker = marker
		events[i].EventID = fmt.Sprintf("event-%d", len(kept)+i)
	}
	m.events = append(kept, events...)
	return removed, nil
}

func (m *mockCalendarEventRepo) ListByUser(_ context.Context, userID, marker string) ([]model.CalendarEvent, error) {
	var result []model.CalendarEvent
	for _, e := range m.events {
		if e.UserID == userID && e.Marker == marker {
			result = append(result, e)
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].StartAt.Before(result[j].StartAt) })
	return result, nil
}

// ── Mock NotificationRepository ──

type mockNotificationRepo struct {
	items []model.Notification
}

func (m *mockNotificationRepo) Create(_ context.Context, n *model.Notification) error {
	for _, existing := range m.items {
		if existing.DedupKey == n.DedupKey {
			return pkgerrors.ErrDuplicate
		}
	}
	n.NotificationID = fmt.Sprintf("notification-%d", len(m.items)+1)
	m.items = append(m.items, *n)
	return nil
}

func (m *mockNotificationRepo) ListByUser(_ context.Context, userID string, unreadOnly bool, offset, limit int) ([]model.Notification, int64, error) {
	var result []model.Notification
	for _, n := range m.items {
		if n.UserID == userID && (!unreadOnly || !n.IsRead) {
			result = append(result, n)
		}
	}
	total := int64(len(result))
	if offset >= len(result) {
		return nil, total, nil
	}
	end := offset + limit
	if end > len(result) {
		end = len(result)
	}
	return result[offset:end], total, nil
}

func (m *mockNotificationRepo) MarkRead(_ context.Context, userID, id string) error {
	for i := range m.items {
		if m.items[i].NotificationID == id && m.items[i].UserID == userID {
			m.items[i].IsRead = true
			return nil
		}
	}
	return gorm.ErrRecordNotFound
}

// ── Fake alarm.Port ──

type fakePort struct {
	mu       sync.Mutex
	exact    bool
	pending  map[string]alarm.Alarm
	canceled []string
}

func newFakePort(exact bool) *fakePort {
	return &fakePort{exact: exact, pending: make(map[string]alarm.Alarm)}
}

func (p *fakePort) CanScheduleExact() bool { return p.exact }

func (p *fakePort) Schedule(_ context.Context, a alarm.Alarm) error {
	if !p.exact {
		return alarm.ErrExactAlarmUnavailable
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	p.pending[a.CourseID] = a
	return nil
}

func (p *fakePort) Cancel(courseID string) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.canceled = append(p.canceled, courseID)
	_, ok := p.pending[courseID]
	delete(p.pending, courseID)
	return ok
}

func (p *fakePort) Pending(courseID string) (alarm.Alarm, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	a, ok := p.pending[courseID]
	return a, ok
}

// ── Fake TokenBlacklist ──

type fakeBlacklist struct {
	tokens map[string]time.Duration
}

func (b *fakeBlacklist) BlacklistToken(_ context.Context, jti string, ttl time.Duration) error {
	b.tokens[jti] = ttl
	return nil
}

// ── 测试夹具 ──

type fixture struct {
	cfg           *config.Config
	repo          *repository.Repository
	users         *mockUserRepo
	courses       *mockCourseRepo
	settings      *mockSettingRepo
	events        *mockCalendarEventRepo
	notifications *mockNotificationRepo
	port          *fakePort
	blacklist     *fakeBlacklist
	jwtMgr        *jwt.Manager
	now           time.Time
	svc           *Service
}

// 2024-01-08 为第 2 周周一（学期从 2024-01-01 开始）
var fixtureNow = time.Date(2024, 1, 8, 8, 0, 0, 0, time.UTC)

func testConfig() *config.Config {
	return &config.Config{
		Auth: config.AuthConfig{JWTSecret: "test-secret-key-for-unit-testing", AccessTokenTTL: time.Hour},
		Reminder: config.ReminderConfig{
			Timezone:           "UTC",
			ExactAlarms:        true,
			DefaultLeadMinutes: 10,
		},
		Calendar: config.CalendarConfig{
			LookaheadDays: 3,
			Marker:        "CourseReminder",
			ProductID:     "-//classbell//test//CN",
		},
	}
}

func newFixture(exact bool) *fixture {
	f := &fixture{
		cfg:           testConfig(),
		users:         newMockUserRepo(),
		courses:       newMockCourseRepo(),
		settings:      newMockSettingRepo(),
		events:        &mockCalendarEventRepo{},
		notifications: &mockNotificationRepo{},
		port:          newFakePort(exact),
		blacklist:     &fakeBlacklist{tokens: make(map[string]time.Duration)},
	}
	f.now = fixtureNow
	f.jwtMgr = jwt.NewManager(&f.cfg.Auth)
	f.repo = &repository.Repository{
		User:          f.users,
		Course:        f.courses,
		Setting:       f.settings,
		CalendarEvent: f.events,
		Notification:  f.notifications,
	}
	f.users.users["user-1"] = &model.User{UserID: "user-1", Username: "alice", Timezone: "UTC"}

	svc, err := NewService(f.cfg, f.repo, f.jwtMgr, f.blacklist, f.port, f, zap.NewNop())
	if err != nil {
		panic(err)
	}
	f.svc = svc
	return f
}

// Now 夹具本身充当可调时钟
func (f *fixture) Now() time.Time { return f.now }

func (f *fixture) setNow(t time.Time) { f.now = t }

func (f *fixture) addCourse(c *model.Course) *model.Course {
	if err := f.courses.Create(context.Background(), c); err != nil {
		panic(err)
	}
	return c
}

// mondayCourse 周一 09:00-09:50，16 周，提前 10 分钟
func mondayCourse() *model.Course {
	return &model.Course{
		CourseID:        "course-math",
		UserID:          "user-1",
		Title:           "高等数学",
		Location:        "A101",
		Color:           "#FF80DEEA",
		DayOfWeek:       1,
		StartTime:       "09:00",
		EndTime:         "09:50",
		SemesterStart:   time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
		TotalWeeks:      16,
		WeekType:        model.WeekTypeAll,
		IncludedWeeks:   model.IntArray{},
		ReminderMinutes: 10,
		VersionedModel:  model.VersionedModel{Version: 1},
	}
}
