package service

import (
	"context"
	"errors"
	"testing"

	"classbell/internal/dto"
	pkgerrors "classbell/pkg/errors"
)

func intPtr(v int) *int       { return &v }
func strPtr(v string) *string { return &v }

func validCreateRequest() *dto.CreateCourseRequest {
	return &dto.CreateCourseRequest{
		Title:         " 高等数学 ",
		Location:      "A101",
		DayOfWeek:     1,
		StartTime:     "9:00",
		EndTime:       "09:50",
		SemesterStart: "2024-01-03", // 周三，应对齐到 2024-01-01
		TotalWeeks:    intPtr(16),
		IncludedWeeks: []int{3, 2, 2},
	}
}

func TestCourseService_Create(t *testing.T) {
	f := newFixture(true)

	resp, err := f.svc.Course.Create(context.Background(), "user-1", validCreateRequest())
	if err != nil {
		t.Fatalf("Create 失败: %v", err)
	}

	if resp.Title != "高等数学" {
		t.Errorf("标题应去除首尾空白，实际 %q", resp.Title)
	}
	if resp.SemesterStart != "2024-01-01" {
		t.Errorf("学期开始应对齐到周一，实际 %s", resp.SemesterStart)
	}
	if resp.StartTime != "09:00" {
		t.Errorf("开始时间应规范为 HH:MM，实际 %s", resp.StartTime)
	}
	if resp.Color != defaultCourseColor {
		t.Errorf("未指定颜色时应使用默认值，实际 %s", resp.Color)
	}
	if resp.ReminderMinutes != 10 {
		t.Errorf("未指定提前量时应使用配置默认值，实际 %d", resp.ReminderMinutes)
	}
	if len(resp.IncludedWeeks) != 2 || resp.IncludedWeeks[0] != 2 || resp.IncludedWeeks[1] != 3 {
		t.Errorf("周次应去重排序，实际 %v", resp.IncludedWeeks)
	}
	if resp.CurrentWeek != 2 {
		t.Errorf("当前应为第 2 周，实际 %d", resp.CurrentWeek)
	}
	if resp.Next == nil || resp.Next.Start != "2024-01-08T09:00:00Z" {
		t.Errorf("下一次上课错误: %+v", resp.Next)
	}
	if resp.Reminder == nil || !resp.Reminder.Scheduled {
		t.Fatalf("创建后应登记提醒，实际 %+v", resp.Reminder)
	}
	if _, ok := f.port.Pending(resp.ID); !ok {
		t.Error("alarm port 中应存在待触发提醒")
	}
}

func TestCourseService_Create_ExactUnavailable(t *testing.T) {
	f := newFixture(false)

	resp, err := f.svc.Course.Create(context.Background(), "user-1", validCreateRequest())
	if err != nil {
		t.Fatalf("精确闹钟不可用不应导致创建失败: %v", err)
	}
	if resp.Reminder == nil || resp.Reminder.Reason != dto.ReminderReasonExactUnavailable {
		t.Errorf("期望 reason=%s，实际 %+v", dto.ReminderReasonExactUnavailable, resp.Reminder)
	}
}

func TestCourseService_Create_Invalid(t *testing.T) {
	f := newFixture(true)

	cases := map[string]func(r *dto.CreateCourseRequest){
		"空标题":    func(r *dto.CreateCourseRequest) { r.Title = "   " },
		"星期越界":   func(r *dto.CreateCourseRequest) { r.DayOfWeek = 8 },
		"开始时间非法": func(r *dto.CreateCourseRequest) { r.StartTime = "25:00" },
		"结束早于开始": func(r *dto.CreateCourseRequest) { r.EndTime = "08:00" },
		"日期非法":   func(r *dto.CreateCourseRequest) { r.SemesterStart = "2024/01/01" },
		"周数为零":   func(r *dto.CreateCourseRequest) { r.TotalWeeks = intPtr(0) },
		"单双周非法":  func(r *dto.CreateCourseRequest) { r.WeekType = "triple" },
		"周次越界":   func(r *dto.CreateCourseRequest) { r.IncludedWeeks = []int{17} },
		"负提前量":   func(r *dto.CreateCourseRequest) { r.ReminderMinutes = intPtr(-5) },
		"颜色非法":   func(r *dto.CreateCourseRequest) { r.Color = "red" },
	}
	for name, mutate := range cases {
		req := validCreateRequest()
		mutate(req)
		if _, err := f.svc.Course.Create(context.Background(), "user-1", req); !errors.Is(err, ErrInvalidCourse) {
			t.Errorf("%s: 期望 ErrInvalidCourse，实际 %v", name, err)
		}
	}
	if len(f.courses.courses) != 0 {
		t.Errorf("校验失败时不应写入课程，实际 %d 条", len(f.courses.courses))
	}
}

func TestCourseService_Update(t *testing.T) {
	ctx := context.Background()
	f := newFixture(true)
	created, err := f.svc.Course.Create(ctx, "user-1", validCreateRequest())
	if err != nil {
		t.Fatalf("Create 失败: %v", err)
	}

	resp, err := f.svc.Course.Update(ctx, "user-1", created.ID, &dto.UpdateCourseRequest{
		DayOfWeek: intPtr(3),
		Location:  strPtr("B202"),
		Version:   intPtr(created.Version),
	})
	if err != nil {
		t.Fatalf("Update 失败: %v", err)
	}
	if resp.Version != created.Version+1 {
		t.Errorf("版本号应递增，实际 %d", resp.Version)
	}
	a, ok := f.port.Pending(created.ID)
	if !ok {
		t.Fatal("更新后应重新登记提醒")
	}
	if a.OccurrenceStart.Day() != 10 || a.Location != "B202" {
		t.Errorf("提醒应随规则更新，实际 %v %s", a.OccurrenceStart, a.Location)
	}

	// 旧版本号
	_, err = f.svc.Course.Update(ctx, "user-1", created.ID, &dto.UpdateCourseRequest{
		Title:   strPtr("线性代数"),
		Version: intPtr(created.Version),
	})
	if !errors.Is(err, pkgerrors.ErrOptimisticLock) {
		t.Errorf("期望 ErrOptimisticLock，实际 %v", err)
	}
}

func TestCourseService_OtherUserCannotAccess(t *testing.T) {
	ctx := context.Background()
	f := newFixture(true)
	created, _ := f.svc.Course.Create(ctx, "user-1", validCreateRequest())

	if _, err := f.svc.Course.Get(ctx, "user-2", created.ID); !errors.Is(err, ErrCourseNotFound) {
		t.Errorf("其他用户查询应返回 ErrCourseNotFound，实际 %v", err)
	}
	if err := f.svc.Course.Delete(ctx, "user-2", created.ID); !errors.Is(err, ErrCourseNotFound) {
		t.Errorf("其他用户删除应返回 ErrCourseNotFound，实际 %v", err)
	}
}

func TestCourseService_Delete(t *testing.T) {
	ctx := context.Background()
	f := newFixture(true)
	created, _ := f.svc.Course.Create(ctx, "user-1", validCreateRequest())

	if err := f.svc.Course.Delete(ctx, "user-1", created.ID); err != nil {
		t.Fatalf("Delete 失败: %v", err)
	}
	if _, ok := f.port.Pending(created.ID); ok {
		t.Error("删除后应取消提醒")
	}
	if _, err := f.svc.Course.Get(ctx, "user-1", created.ID); !errors.Is(err, ErrCourseNotFound) {
		t.Errorf("删除后查询应返回 ErrCourseNotFound，实际 %v", err)
	}
}

func TestCourseService_NextAndOccurrences(t *testing.T) {
	ctx := context.Background()
	f := newFixture(true)
	course := f.addCourse(mondayCourse())

	next, err := f.svc.Course.Next(ctx, "user-1", course.CourseID)
	if err != nil {
		t.Fatalf("Next 失败: %v", err)
	}
	if next.WeekIndex != 2 || next.FireAt != "2024-01-08T08:50:00Z" {
		t.Errorf("Next 结果错误: %+v", next)
	}

	occs, err := f.svc.Course.Occurrences(ctx, "user-1", course.CourseID, 14)
	if err != nil {
		t.Fatalf("Occurrences 失败: %v", err)
	}
	if len(occs) != 2 {
		t.Fatalf("14 天内期望 2 次课，实际 %d", len(occs))
	}
	if occs[1].Start != "2024-01-15T09:00:00Z" || occs[1].WeekIndex != 3 {
		t.Errorf("第二次课错误: %+v", occs[1])
	}

	// days<=0 使用默认 7 天
	occs, _ = f.svc.Course.Occurrences(ctx, "user-1", course.CourseID, 0)
	if len(occs) != 1 {
		t.Errorf("默认窗口期望 1 次课，实际 %d", len(occs))
	}
}

func TestCourseService_Next_NoUpcoming(t *testing.T) {
	f := newFixture(true)
	c := mondayCourse()
	c.TotalWeeks = 1
	course := f.addCourse(c)

	if _, err := f.svc.Course.Next(context.Background(), "user-1", course.CourseID); !errors.Is(err, ErrNoUpcomingCourse) {
		t.Errorf("期望 ErrNoUpcomingCourse，实际 %v", err)
	}
}
