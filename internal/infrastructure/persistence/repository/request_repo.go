package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"

	"github.com/garyjia/caf-approval/internal/application/port"
	"github.com/garyjia/caf-approval/internal/domain/entity"
	"github.com/garyjia/caf-approval/internal/domain/workflow"
	"github.com/garyjia/caf-approval/pkg/database"
)

const requestColumns = `
	id, approval_state, mode, comments, requesting_actor, reviewing_actor,
	contract_type, responsible, request_date, client, building, address,
	supplier, work_description, justification, sharepoint_link,
	start_date, end_date, amount_mxn, amount_usd, exchange_rate, work_type,
	created_at, updated_at`

// requestRow is the caf_requests row layout
type requestRow struct {
	ID              int64     `db:"id"`
	ApprovalState   string    `db:"approval_state"`
	Mode            string    `db:"mode"`
	Comments        string    `db:"comments"`
	RequestingActor string    `db:"requesting_actor"`
	ReviewingActor  string    `db:"reviewing_actor"`
	ContractType    string    `db:"contract_type"`
	Responsible     string    `db:"responsible"`
	RequestDate     string    `db:"request_date"`
	Client          string    `db:"client"`
	Building        string    `db:"building"`
	Address         string    `db:"address"`
	Supplier        string    `db:"supplier"`
	WorkDescription string    `db:"work_description"`
	Justification   string    `db:"justification"`
	SharePointLink  string    `db:"sharepoint_link"`
	StartDate       string    `db:"start_date"`
	EndDate         string    `db:"end_date"`
	AmountMXN       string    `db:"amount_mxn"`
	AmountUSD       string    `db:"amount_usd"`
	ExchangeRate    string    `db:"exchange_rate"`
	WorkType        string    `db:"work_type"`
	CreatedAt       time.Time `db:"created_at"`
	UpdatedAt       time.Time `db:"updated_at"`
}

func (row requestRow) toEntity() entity.Request {
	r := entity.Request{
		ID:              row.ID,
		Comments:        row.Comments,
		RequestingActor: row.RequestingActor,
		ReviewingActor:  row.ReviewingActor,
		Fields: entity.Fields{
			ContractType:    row.ContractType,
			Responsible:     row.Responsible,
			Date:            row.RequestDate,
			Client:          row.Client,
			Building:        row.Building,
			Address:         row.Address,
			Supplier:        row.Supplier,
			WorkDescription: row.WorkDescription,
			Justification:   row.Justification,
			SharePointLink:  row.SharePointLink,
			StartDate:       row.StartDate,
			EndDate:         row.EndDate,
			AmountMXN:       row.AmountMXN,
			AmountUSD:       row.AmountUSD,
			ExchangeRate:    row.ExchangeRate,
			WorkType:        row.WorkType,
		},
		CreatedAt: row.CreatedAt,
		UpdatedAt: row.UpdatedAt,
	}
	// mode is stored for reporting only; it is always derived on load
	r.SetState(workflow.State(row.ApprovalState))
	return r
}

// columnValues returns the writable columns in insert order
func columnValues(r entity.Request) []interface{} {
	f := r.Fields
	return []interface{}{
		r.State.String(), string(r.Mode), r.Comments, r.RequestingActor, r.ReviewingActor,
		f.ContractType, f.Responsible, f.Date, f.Client, f.Building, f.Address,
		f.Supplier, f.WorkDescription, f.Justification, f.SharePointLink,
		f.StartDate, f.EndDate, f.AmountMXN, f.AmountUSD, f.ExchangeRate, f.WorkType,
	}
}

// RequestRepository implements port.RequestStore on top of sqlx
type RequestRepository struct {
	db     *database.DB
	logger *zap.Logger
}

// NewRequestRepository creates a new request repository
func NewRequestRepository(db *database.DB, logger *zap.Logger) *RequestRepository {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &RequestRepository{
		db:     db,
		logger: logger,
	}
}

// CreateRequest inserts a request and reads it back in the same transaction
func (r *RequestRepository) CreateRequest(ctx context.Context, req entity.Request) (entity.Request, error) {
	query := `
		INSERT INTO caf_requests (
			approval_state, mode, comments, requesting_actor, reviewing_actor,
			contract_type, responsible, request_date, client, building, address,
			supplier, work_description, justification, sharepoint_link,
			start_date, end_date, amount_mxn, amount_usd, exchange_rate, work_type,
			created_at, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		RETURNING id
	`

	args := append(columnValues(req), req.CreatedAt, req.UpdatedAt)

	var stored entity.Request
	err := r.db.WithTransaction(ctx, func(tx *sqlx.Tx) error {
		var id int64
		if err := tx.QueryRowxContext(ctx, tx.Rebind(query), args...).Scan(&id); err != nil {
			return fmt.Errorf("failed to create request: %w", err)
		}

		got, err := getRequest(ctx, tx, id)
		if err != nil {
			return err
		}
		stored = got
		return nil
	})
	if err != nil {
		r.logger.Error("Failed to create request", zap.Error(err))
		return entity.Request{}, err
	}

	return stored, nil
}

// GetRequest retrieves a request by id
func (r *RequestRepository) GetRequest(ctx context.Context, id int64) (entity.Request, error) {
	return getRequest(ctx, r.db, id)
}

// SaveRequest overwrites every mutable column of an existing request
func (r *RequestRepository) SaveRequest(ctx context.Context, req entity.Request) error {
	query := `
		UPDATE caf_requests SET
			approval_state = ?, mode = ?, comments = ?, requesting_actor = ?, reviewing_actor = ?,
			contract_type = ?, responsible = ?, request_date = ?, client = ?, building = ?, address = ?,
			supplier = ?, work_description = ?, justification = ?, sharepoint_link = ?,
			start_date = ?, end_date = ?, amount_mxn = ?, amount_usd = ?, exchange_rate = ?, work_type = ?,
			updated_at = ?
		WHERE id = ?
	`

	args := append(columnValues(req), req.UpdatedAt, req.ID)

	result, err := r.db.ExecContext(ctx, r.db.Rebind(query), args...)
	if err != nil {
		r.logger.Error("Failed to save request", zap.Int64("id", req.ID), zap.Error(err))
		return fmt.Errorf("failed to save request: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rows == 0 {
		return &workflow.NotFoundError{ID: req.ID}
	}

	return nil
}

// queryer is satisfied by both the connection and a transaction
type queryer interface {
	sqlx.QueryerContext
	Rebind(query string) string
}

func getRequest(ctx context.Context, q queryer, id int64) (entity.Request, error) {
	query := `SELECT ` + requestColumns + ` FROM caf_requests WHERE id = ?`

	var row requestRow
	if err := sqlx.GetContext(ctx, q, &row, q.Rebind(query), id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return entity.Request{}, &workflow.NotFoundError{ID: id}
		}
		return entity.Request{}, fmt.Errorf("failed to get request: %w", err)
	}

	return row.toEntity(), nil
}

// Verify interface compliance
var _ port.RequestStore = (*RequestRepository)(nil)
