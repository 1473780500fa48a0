package errCode

type Code int

const (
	OK Code = iota
	EMPTY_VALUE
	INVALID_VALUE
	INVALID_PARAMETER  // 参数非法（p、q、steps）
	INSUFFICIENT_DATA  // 样本长度不足 T <= max(p,q)
	DIMENSION_MISMATCH // 列数/行数不匹配
	PRECONDITION       // 输入包含 NaN/Inf
	NOT_FITTED
	STORAGE
	INTERNAL // 未携带错误码的错误
)

func (c Code) String() string {
	switch c {
	case OK:
		return "OK"
	case EMPTY_VALUE:
		return "EMPTY_VALUE"
	case INVALID_VALUE:
		return "INVALID_VALUE"
	case INVALID_PARAMETER:
		return "INVALID_PARAMETER"
	case INSUFFICIENT_DATA:
		return "INSUFFICIENT_DATA"
	case DIMENSION_MISMATCH:
		return "DIMENSION_MISMATCH"
	case PRECONDITION:
		return "PRECONDITION"
	case NOT_FITTED:
		return "NOT_FITTED"
	case STORAGE:
		return "STORAGE"
	case INTERNAL:
		return "INTERNAL"
	default:
		return "UNKNOWN"
	}
}
