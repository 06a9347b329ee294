package clock

import "time"

// Clock 统一的"当前时间"来源，便于测试注入确定的参考时刻
type Clock interface {
	Now() time.Time
}

type systemClock struct {
	loc *time.Location
}

// System 返回系统时钟，结果转换到 loc（nil 时使用 time.Local）
func System(loc *time.Location) Clock {
	if loc == nil {
		loc = time.Local
	}
	return systemClock{loc: loc}
}

func (c systemClock) Now() time.Time { return time.Now().In(c.loc) }

// Fixed 固定时刻的时钟
type Fixed time.Time

func (f Fixed) Now() time.Time { return time.Time(f) }
