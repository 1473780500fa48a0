package usage

import (
	"fmt"

	"github.com/tidwall/gjson"

	"usageforecast/infra/errorx"
	"usageforecast/infra/errorx/errCode"
)

// ParseRowsJSON 解析 [{...}, ...] 或 {"data": [...]}
func ParseRowsJSON(body []byte) ([]Row, error) {
	if !gjson.ValidBytes(body) {
		return nil, errorx.New(errCode.INVALID_VALUE, "invalid json")
	}
	root := gjson.ParseBytes(body)
	if root.IsObject() {
		root = root.Get("data")
	}
	if !root.IsArray() {
		return nil, errorx.New(errCode.INVALID_VALUE, "expected an array of usage rows")
	}

	items := root.Array()
	if len(items) == 0 {
		return nil, errorx.New(errCode.EMPTY_VALUE, "no usage rows")
	}

	rows := make([]Row, 0, len(items))
	for i, it := range items {
		r, err := parseRow(it)
		if err != nil {
			return nil, errorx.Wrap(errCode.INVALID_VALUE, fmt.Sprintf("row %d", i), err)
		}
		rows = append(rows, r)
	}
	return rows, nil
}

func parseRow(it gjson.Result) (Row, error) {
	if !it.IsObject() {
		return Row{}, fmt.Errorf("not an object")
	}
	user := it.Get("nama_pemakai")
	if user.Type != gjson.String || user.Str == "" {
		return Row{}, fmt.Errorf("nama_pemakai is required")
	}
	week := it.Get("minggu")
	if week.Type != gjson.Number || week.Num != float64(week.Int()) {
		return Row{}, fmt.Errorf("minggu must be an integer")
	}
	use := it.Get("usage_data")
	if use.Type != gjson.Number {
		return Row{}, fmt.Errorf("usage_data must be a number")
	}
	power := it.Get("daya_tersambung")
	if power.Exists() && power.Type != gjson.Number {
		return Row{}, fmt.Errorf("daya_tersambung must be a number")
	}

	return Row{
		User:     user.Str,
		Category: it.Get("kategori").String(),
		Location: it.Get("lokasi").String(),
		Power:    power.Float(),
		Week:     int(week.Int()),
		Usage:    use.Num,
	}, nil
}
