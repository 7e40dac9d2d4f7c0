package services

import "time"

// Overlaps 判斷兩個閉區間 [a1,a2] 與 [b1,b2] 是否重疊。
// 條件：a1 <= b2 且 b1 <= a2，端點相接也算重疊。
func Overlaps(a1, a2, b1, b2 time.Time) bool {
	return !a1.After(b2) && !b1.After(a2)
}

// ContainsDate 判斷日期 d 是否落在閉區間 [from,to] 內
func ContainsDate(from, to, d time.Time) bool {
	return !d.Before(from) && !d.After(to)
}
