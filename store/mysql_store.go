package store

import (
	"context"
	"database/sql"
	"fmt"
	"regexp"

	_ "github.com/go-sql-driver/mysql"

	"usageforecast/infra/errorx"
	"usageforecast/infra/errorx/errCode"
	"usageforecast/infra/observe/log/staticLog"
	"usageforecast/usage"
)

const (
	DefaultTable           = "predictions"
	DefaultPredictionTable = "prediction_results"
)

var tableName = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// MySQLStore 每次调用独占一个连接，调用结束即归还
type MySQLStore struct {
	db        *sql.DB
	table     string // 用电记录
	predTable string // 预测结果
}

func OpenMySQL(dsn, table, predTable string) (*MySQLStore, error) {
	db, err := sql.Open("mysql", dsn)
	if err != nil {
		return nil, errorx.Wrap(errCode.STORAGE, "open mysql", err)
	}
	s, err := NewMySQLStore(db, table, predTable)
	if err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

// NewMySQLStore 表名为空时使用默认表
func NewMySQLStore(db *sql.DB, table, predTable string) (*MySQLStore, error) {
	if table == "" {
		table = DefaultTable
	}
	if predTable == "" {
		predTable = DefaultPredictionTable
	}
	for _, name := range []string{table, predTable} {
		if !tableName.MatchString(name) {
			return nil, errorx.New(errCode.INVALID_PARAMETER, fmt.Sprintf("invalid table name %q", name))
		}
	}
	return &MySQLStore{db: db, table: table, predTable: predTable}, nil
}

// List usage_data 为 NULL 的行视为缺失，直接跳过
func (s *MySQLStore) List(ctx context.Context) ([]usage.Row, error) {
	conn, err := s.db.Conn(ctx)
	if err != nil {
		return nil, errorx.Wrap(errCode.STORAGE, "acquire connection", err)
	}
	defer conn.Close()

	query := fmt.Sprintf("SELECT nama_pemakai, kategori, lokasi, daya_tersambung, minggu, usage_data FROM %s ORDER BY minggu", s.table)
	rs, err := conn.QueryContext(ctx, query)
	if err != nil {
		return nil, errorx.Wrap(errCode.STORAGE, "query usage", err)
	}
	defer rs.Close()

	out := make([]usage.Row, 0)
	skipped := 0
	for rs.Next() {
		var (
			user, category, location sql.NullString
			power, value             sql.NullFloat64
			week                     int
		)
		if err := rs.Scan(&user, &category, &location, &power, &week, &value); err != nil {
			return nil, errorx.Wrap(errCode.STORAGE, "scan usage", err)
		}
		if !value.Valid {
			skipped++
			continue
		}
		out = append(out, usage.Row{
			User:     user.String,
			Category: category.String,
			Location: location.String,
			Power:    power.Float64,
			Week:     week,
			Usage:    value.Float64,
		})
	}
	if err := rs.Err(); err != nil {
		return nil, errorx.Wrap(errCode.STORAGE, "iterate usage", err)
	}
	if skipped > 0 {
		staticLog.Log.Debugf("skipped %d usage rows with NULL usage_data", skipped)
	}
	return out, nil
}

// Insert 单事务批量写入
func (s *MySQLStore) Insert(ctx context.Context, rows []usage.Row) error {
	conn, err := s.db.Conn(ctx)
	if err != nil {
		return errorx.Wrap(errCode.STORAGE, "acquire connection", err)
	}
	defer conn.Close()

	tx, err := conn.BeginTx(ctx, nil)
	if err != nil {
		return errorx.Wrap(errCode.STORAGE, "begin tx", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, fmt.Sprintf(
		"INSERT INTO %s (nama_pemakai, kategori, lokasi, daya_tersambung, minggu, usage_data) VALUES (?, ?, ?, ?, ?, ?)", s.table))
	if err != nil {
		return errorx.Wrap(errCode.STORAGE, "prepare insert", err)
	}
	defer stmt.Close()

	for _, r := range rows {
		if _, err := stmt.ExecContext(ctx, r.User, r.Category, r.Location, r.Power, r.Week, r.Usage); err != nil {
			return errorx.Wrap(errCode.STORAGE, fmt.Sprintf("insert %s week %d", r.Key(), r.Week), err)
		}
	}
	if err := tx.Commit(); err != nil {
		return errorx.Wrap(errCode.STORAGE, "commit", err)
	}
	return nil
}

// SavePredictions 同一事务内清空旧结果再写入
func (s *MySQLStore) SavePredictions(ctx context.Context, preds []usage.Prediction) error {
	conn, err := s.db.Conn(ctx)
	if err != nil {
		return errorx.Wrap(errCode.STORAGE, "acquire connection", err)
	}
	defer conn.Close()

	tx, err := conn.BeginTx(ctx, nil)
	if err != nil {
		return errorx.Wrap(errCode.STORAGE, "begin tx", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, fmt.Sprintf("DELETE FROM %s", s.predTable)); err != nil {
		return errorx.Wrap(errCode.STORAGE, "clear predictions", err)
	}
	stmt, err := tx.PrepareContext(ctx, fmt.Sprintf(
		"INSERT INTO %s (nama_pemakai, kategori, lokasi, daya_tersambung, week_pred, prediction_result) VALUES (?, ?, ?, ?, ?, ?)", s.predTable))
	if err != nil {
		return errorx.Wrap(errCode.STORAGE, "prepare insert", err)
	}
	defer stmt.Close()

	for _, p := range preds {
		if _, err := stmt.ExecContext(ctx, p.User, p.Category, p.Location, p.Power, p.WeekPred, p.Result); err != nil {
			return errorx.Wrap(errCode.STORAGE, fmt.Sprintf("insert prediction %s week %d", p.User, p.WeekPred), err)
		}
	}
	if err := tx.Commit(); err != nil {
		return errorx.Wrap(errCode.STORAGE, "commit", err)
	}
	return nil
}

func (s *MySQLStore) ListPredictions(ctx context.Context) ([]usage.Prediction, error) {
	conn, err := s.db.Conn(ctx)
	if err != nil {
		return nil, errorx.Wrap(errCode.STORAGE, "acquire connection", err)
	}
	defer conn.Close()

	query := fmt.Sprintf("SELECT nama_pemakai, kategori, lokasi, daya_tersambung, week_pred, prediction_result FROM %s ORDER BY nama_pemakai, week_pred", s.predTable)
	rs, err := conn.QueryContext(ctx, query)
	if err != nil {
		return nil, errorx.Wrap(errCode.STORAGE, "query predictions", err)
	}
	defer rs.Close()

	out := make([]usage.Prediction, 0)
	for rs.Next() {
		var p usage.Prediction
		if err := rs.Scan(&p.User, &p.Category, &p.Location, &p.Power, &p.WeekPred, &p.Result); err != nil {
			return nil, errorx.Wrap(errCode.STORAGE, "scan prediction", err)
		}
		out = append(out, p)
	}
	if err := rs.Err(); err != nil {
		return nil, errorx.Wrap(errCode.STORAGE, "iterate predictions", err)
	}
	return out, nil
}

func (s *MySQLStore) Close() error {
	return s.db.Close()
}
