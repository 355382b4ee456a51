package models

import "testing"

func TestRangePercent(t *testing.T) {
	// low为0时返回0，不产生除零
	if got := RangePercent(100, 0); got != 0 {
		t.Errorf("low为0时应返回0: %v", got)
	}
	if got := RangePercent(0, 0); got != 0 {
		t.Errorf("全零输入应返回0: %v", got)
	}

	// (high-low)/low*100
	if got := RangePercent(110, 100); got != 10 {
		t.Errorf("期望 10, 实际 %v", got)
	}
	if got := RangePercent(2700, 2650); got != (2700.0-2650.0)/2650.0*100 {
		t.Errorf("区间百分比计算错误: %v", got)
	}

	// 高低相等时区间为0
	if got := RangePercent(100, 100); got != 0 {
		t.Errorf("高低相等时应返回0: %v", got)
	}
}
