// Package usage 用户每周用电记录，透视为 VARMA 的观测矩阵，并把预测整理成输出记录
package usage

import (
	"cmp"
	"fmt"
)

// Row 对应 predictions 表的一行
type Row struct {
	User     string  `json:"nama_pemakai"`
	Category string  `json:"kategori"`
	Location string  `json:"lokasi"`
	Power    float64 `json:"daya_tersambung"` // 接入容量 VA
	Week     int     `json:"minggu"`
	Usage    float64 `json:"usage_data"`
}

func (r Row) Key() Key {
	return Key{User: r.User, Category: r.Category, Location: r.Location, Power: r.Power}
}

// Key 列的复合键，一个 Key 对应矩阵的一列
type Key struct {
	User     string
	Category string
	Location string
	Power    float64
}

func (k Key) String() string {
	return fmt.Sprintf("%s/%s/%s/%g", k.User, k.Category, k.Location, k.Power)
}

// Compare 按 User, Category, Location, Power 依次比较
func (k Key) Compare(o Key) int {
	if c := cmp.Compare(k.User, o.User); c != 0 {
		return c
	}
	if c := cmp.Compare(k.Category, o.Category); c != 0 {
		return c
	}
	if c := cmp.Compare(k.Location, o.Location); c != 0 {
		return c
	}
	return cmp.Compare(k.Power, o.Power)
}

// Values 输出时的 User 字段 [nama, kategori, lokasi, daya]
func (k Key) Values() []any {
	return []any{k.User, k.Category, k.Location, k.Power}
}
