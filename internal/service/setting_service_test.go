package service

import (
	"context"
	"testing"

	"classbell/internal/dto"
)

func boolPtr(v bool) *bool { return &v }

func TestSettingService_GetDefaults(t *testing.T) {
	f := newFixture(true)

	resp, err := f.svc.Setting.Get(context.Background(), "user-1")
	if err != nil {
		t.Fatalf("Get 失败: %v", err)
	}
	if !resp.NotificationSound || !resp.NotificationVibrate {
		t.Error("默认应开启声音与振动")
	}
	if resp.AutoSync || resp.DarkTheme || resp.FullscreenAlert {
		t.Errorf("其余偏好默认应关闭: %+v", resp)
	}
	if resp.LastSyncAt != nil {
		t.Error("未同步过时 last_sync_at 应为空")
	}
}

func TestSettingService_UpdatePartial(t *testing.T) {
	ctx := context.Background()
	f := newFixture(true)

	resp, err := f.svc.Setting.Update(ctx, "user-1", &dto.UpdateSettingRequest{
		DarkTheme:         boolPtr(true),
		NotificationSound: boolPtr(false),
	})
	if err != nil {
		t.Fatalf("Update 失败: %v", err)
	}
	if !resp.DarkTheme || resp.NotificationSound {
		t.Errorf("指定字段未生效: %+v", resp)
	}
	if !resp.NotificationVibrate {
		t.Error("未指定的字段应保持原值")
	}
	if len(f.events.events) != 0 {
		t.Error("未开启自动同步时不应同步日历")
	}
}

func TestSettingService_EnableAutoSyncTriggersSync(t *testing.T) {
	ctx := context.Background()
	f := newFixture(true)
	f.addCourse(mondayCourse())

	resp, err := f.svc.Setting.Update(ctx, "user-1", &dto.UpdateSettingRequest{AutoSync: boolPtr(true)})
	if err != nil {
		t.Fatalf("Update 失败: %v", err)
	}
	if !resp.AutoSync {
		t.Error("auto_sync 应已开启")
	}
	if resp.LastSyncAt == nil || *resp.LastSyncAt != "2024-01-08T08:00:00Z" {
		t.Errorf("开启后应立即同步并返回同步时间，实际 %v", resp.LastSyncAt)
	}
	if len(f.events.events) != 1 {
		t.Errorf("期望镜像 1 个日历事件，实际 %d", len(f.events.events))
	}

	// 已开启时再次保存不重复同步
	f.events.events = nil
	if _, err := f.svc.Setting.Update(ctx, "user-1", &dto.UpdateSettingRequest{AutoSync: boolPtr(true)}); err != nil {
		t.Fatalf("Update 失败: %v", err)
	}
	if len(f.events.events) != 0 {
		t.Error("auto_sync 未发生变化时不应触发同步")
	}
}
