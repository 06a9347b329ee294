package service

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestUpcomingService_Next(t *testing.T) {
	f := newFixture(true)
	f.addCourse(mondayCourse())
	early := mondayCourse()
	early.CourseID = "course-english"
	early.Title = "大学英语"
	early.StartTime = "08:30"
	early.EndTime = "09:15"
	f.addCourse(early)

	resp, err := f.svc.Upcoming.Next(context.Background(), "user-1")
	if err != nil {
		t.Fatalf("Next 失败: %v", err)
	}
	if resp.Course.ID != "course-english" {
		t.Errorf("应选择最早开始的课程，实际 %s", resp.Course.ID)
	}
	// 08:00 → 提醒时刻 08:20
	if resp.CountdownTarget != "2024-01-08T08:20:00Z" {
		t.Errorf("倒计时目标应为提醒时刻，实际 %s", resp.CountdownTarget)
	}
	if resp.MinutesLeft != 20 || resp.Countdown != "Starts in 20 min" {
		t.Errorf("倒计时错误: %d %q", resp.MinutesLeft, resp.Countdown)
	}
}

func TestUpcomingService_Next_FireTimePassed(t *testing.T) {
	f := newFixture(true)
	f.addCourse(mondayCourse())
	f.setNow(time.Date(2024, 1, 8, 8, 55, 0, 0, time.UTC))

	resp, err := f.svc.Upcoming.Next(context.Background(), "user-1")
	if err != nil {
		t.Fatalf("Next 失败: %v", err)
	}
	if resp.CountdownTarget != "2024-01-08T09:00:00Z" {
		t.Errorf("提醒时刻已过应倒计时到开课，实际 %s", resp.CountdownTarget)
	}
	if resp.MinutesLeft != 5 {
		t.Errorf("期望剩余 5 分钟，实际 %d", resp.MinutesLeft)
	}
}

func TestUpcomingService_Next_None(t *testing.T) {
	f := newFixture(true)

	if _, err := f.svc.Upcoming.Next(context.Background(), "user-1"); !errors.Is(err, ErrUpcomingNone) {
		t.Errorf("无课程时期望 ErrUpcomingNone，实际 %v", err)
	}

	c := mondayCourse()
	c.TotalWeeks = 1
	f.addCourse(c)
	if _, err := f.svc.Upcoming.Next(context.Background(), "user-1"); !errors.Is(err, ErrUpcomingNone) {
		t.Errorf("课程均已结束时期望 ErrUpcomingNone，实际 %v", err)
	}
}

func TestCountdownText(t *testing.T) {
	tests := []struct {
		mins int64
		want string
	}{
		{-3, "Starting now"},
		{0, "Starting now"},
		{1, "Starts in 1 min"},
		{59, "Starts in 59 min"},
		{60, "Starts in 1 h 0 min"},
		{135, "Starts in 2 h 15 min"},
	}
	for _, tt := range tests {
		if got := CountdownText(tt.mins); got != tt.want {
			t.Errorf("CountdownText(%d) = %q，期望 %q", tt.mins, got, tt.want)
		}
	}
}
