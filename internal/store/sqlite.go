// Package store provides data persistence implementations.
package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"

	"bullion-desk/internal/errors"
	"bullion-desk/internal/models"
)

// SQLiteStore implements DataStore using SQLite.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLiteStore creates a new SQLite-based data store.
func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// Configure connection pool for concurrent access
	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(time.Hour)

	store := &SQLiteStore{db: db}

	if err := store.initSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	return store, nil
}

// initSchema creates all required tables and indexes.
func (s *SQLiteStore) initSchema() error {
	schema := `
	-- Saved quotes (deferred, expiring offers)
	CREATE TABLE IF NOT EXISTS quotes (
		id TEXT PRIMARY KEY,
		reference TEXT NOT NULL UNIQUE,
		customer_id TEXT,
		customer_name TEXT NOT NULL,
		customer_email TEXT,
		customer_phone TEXT,
		fulfillment TEXT NOT NULL,
		ship_to TEXT,
		items TEXT NOT NULL,
		subtotal REAL NOT NULL,
		markup REAL NOT NULL,
		total REAL NOT NULL,
		notes TEXT,
		status TEXT NOT NULL DEFAULT 'PENDING',
		confirmation TEXT,
		created_at DATETIME NOT NULL,
		expires_at DATETIME NOT NULL,
		executed_at DATETIME
	);

	-- Trade ledger (durable record of executed and partial trades)
	CREATE TABLE IF NOT EXISTS trades (
		transaction_id TEXT PRIMARY KEY,
		confirmation TEXT NOT NULL,
		source TEXT NOT NULL,
		reference TEXT,
		customer_name TEXT,
		fulfillment TEXT NOT NULL,
		items TEXT NOT NULL,
		busted TEXT,
		total_cost REAL NOT NULL,
		executed_at DATETIME NOT NULL,
		created_at DATETIME DEFAULT CURRENT_TIMESTAMP
	);

	-- Customer directory
	CREATE TABLE IF NOT EXISTS customers (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		email TEXT,
		phone TEXT,
		created_at DATETIME DEFAULT CURRENT_TIMESTAMP
	);

	-- Create indexes for performance
	CREATE INDEX IF NOT EXISTS idx_quotes_status ON quotes(status);
	CREATE INDEX IF NOT EXISTS idx_quotes_expires ON quotes(expires_at);
	CREATE INDEX IF NOT EXISTS idx_trades_source ON trades(source);
	CREATE INDEX IF NOT EXISTS idx_trades_executed ON trades(executed_at);
	CREATE INDEX IF NOT EXISTS idx_customers_name ON customers(name);
	`

	_, err := s.db.Exec(schema)
	return err
}

// SaveQuote persists a new quote.
func (s *SQLiteStore) SaveQuote(ctx context.Context, quote *models.Quote) error {
	items, err := json.Marshal(quote.Items)
	if err != nil {
		return errors.Wrap(err, "encoding quote items")
	}

	var shipTo interface{}
	if quote.ShipTo != nil {
		data, err := json.Marshal(quote.ShipTo)
		if err != nil {
			return errors.Wrap(err, "encoding ship-to address")
		}
		shipTo = string(data)
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO quotes (
			id, reference, customer_id, customer_name, customer_email, customer_phone,
			fulfillment, ship_to, items, subtotal, markup, total, notes, status,
			created_at, expires_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		quote.ID, quote.Reference,
		quote.Customer.ID, quote.Customer.Name, quote.Customer.Email, quote.Customer.Phone,
		string(quote.Fulfillment), shipTo, string(items),
		quote.Subtotal, quote.Markup, quote.Total, quote.Notes, string(quote.Status),
		quote.CreatedAt, quote.ExpiresAt,
	)
	if err != nil {
		return errors.Wrap(errors.ErrDatabase, err.Error())
	}
	return nil
}

// GetQuote fetches a quote by ID.
func (s *SQLiteStore) GetQuote(ctx context.Context, id string) (*models.Quote, error) {
	return s.getQuoteWhere(ctx, "id = ?", id)
}

// GetQuoteByReference fetches a quote by its external reference.
func (s *SQLiteStore) GetQuoteByReference(ctx context.Context, reference string) (*models.Quote, error) {
	return s.getQuoteWhere(ctx, "reference = ?", reference)
}

func (s *SQLiteStore) getQuoteWhere(ctx context.Context, where string, arg interface{}) (*models.Quote, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, reference, customer_id, customer_name, customer_email, customer_phone,
		       fulfillment, ship_to, items, subtotal, markup, total, notes, status,
		       created_at, expires_at, executed_at
		FROM quotes WHERE `+where, arg)

	quote, err := scanQuote(row)
	if err == sql.ErrNoRows {
		return nil, errors.Wrapf(errors.ErrNotFound, "quote %v", arg)
	}
	if err != nil {
		return nil, errors.Wrap(errors.ErrDatabase, err.Error())
	}
	return quote, nil
}

// GetPendingQuotes returns all quotes with PENDING status. Ordering is a
// display concern; callers sort as needed.
func (s *SQLiteStore) GetPendingQuotes(ctx context.Context) ([]models.Quote, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, reference, customer_id, customer_name, customer_email, customer_phone,
		       fulfillment, ship_to, items, subtotal, markup, total, notes, status,
		       created_at, expires_at, executed_at
		FROM quotes WHERE status = ?`, string(models.QuotePending))
	if err != nil {
		return nil, errors.Wrap(errors.ErrDatabase, err.Error())
	}
	defer rows.Close()

	var quotes []models.Quote
	for rows.Next() {
		quote, err := scanQuote(rows)
		if err != nil {
			return nil, errors.Wrap(errors.ErrDatabase, err.Error())
		}
		quotes = append(quotes, *quote)
	}
	return quotes, rows.Err()
}

// MarkQuoteExecuted transitions a pending quote to EXECUTED. The transition
// is guarded in SQL so a quote can never leave PENDING twice.
func (s *SQLiteStore) MarkQuoteExecuted(ctx context.Context, id, confirmation string, at time.Time) error {
	result, err := s.db.ExecContext(ctx, `
		UPDATE quotes SET status = ?, confirmation = ?, executed_at = ?
		WHERE id = ? AND status = ?`,
		string(models.QuoteExecuted), confirmation, at, id, string(models.QuotePending))
	if err != nil {
		return errors.Wrap(errors.ErrDatabase, err.Error())
	}
	affected, _ := result.RowsAffected()
	if affected == 0 {
		return errors.ErrQuoteNotPending
	}
	return nil
}

// MarkQuoteExpired transitions a pending quote to EXPIRED. Used by
// housekeeping only, never by the execution path: a time-expired quote
// stays PENDING until explicitly swept.
func (s *SQLiteStore) MarkQuoteExpired(ctx context.Context, id string) error {
	result, err := s.db.ExecContext(ctx, `
		UPDATE quotes SET status = ? WHERE id = ? AND status = ?`,
		string(models.QuoteExpired), id, string(models.QuotePending))
	if err != nil {
		return errors.Wrap(errors.ErrDatabase, err.Error())
	}
	affected, _ := result.RowsAffected()
	if affected == 0 {
		return errors.ErrQuoteNotPending
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanQuote(row rowScanner) (*models.Quote, error) {
	var quote models.Quote
	var shipTo, notes sql.NullString
	var custID, custEmail, custPhone sql.NullString
	var items string
	var status, fulfillment string
	var executedAt sql.NullTime

	err := row.Scan(
		&quote.ID, &quote.Reference,
		&custID, &quote.Customer.Name, &custEmail, &custPhone,
		&fulfillment, &shipTo, &items,
		&quote.Subtotal, &quote.Markup, &quote.Total, &notes, &status,
		&quote.CreatedAt, &quote.ExpiresAt, &executedAt,
	)
	if err != nil {
		return nil, err
	}

	quote.Customer.ID = custID.String
	quote.Customer.Email = custEmail.String
	quote.Customer.Phone = custPhone.String
	quote.Fulfillment = models.FulfillmentMethod(fulfillment)
	quote.Status = models.QuoteStatus(status)
	quote.Notes = notes.String

	if err := json.Unmarshal([]byte(items), &quote.Items); err != nil {
		return nil, fmt.Errorf("decoding quote items: %w", err)
	}
	if shipTo.Valid && shipTo.String != "" {
		var addr models.Address
		if err := json.Unmarshal([]byte(shipTo.String), &addr); err != nil {
			return nil, fmt.Errorf("decoding ship-to address: %w", err)
		}
		quote.ShipTo = &addr
	}
	if executedAt.Valid {
		t := executedAt.Time
		quote.ExecutedAt = &t
	}
	return &quote, nil
}

// RecordTrade inserts a durable ledger entry for an executed trade.
func (s *SQLiteStore) RecordTrade(ctx context.Context, rec models.TradeRecord) error {
	items, err := json.Marshal(rec.Filled)
	if err != nil {
		return errors.Wrap(err, "encoding filled items")
	}
	busted, err := json.Marshal(rec.Busted)
	if err != nil {
		return errors.Wrap(err, "encoding busted items")
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO trades (
			transaction_id, confirmation, source, reference, customer_name,
			fulfillment, items, busted, total_cost, executed_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		rec.TransactionID, rec.ConfirmationNumber, rec.Source, rec.Reference,
		rec.CustomerName, string(rec.Fulfillment), string(items), string(busted),
		rec.TotalCost, rec.ExecutedAt,
	)
	if err != nil {
		return errors.Wrap(errors.ErrDatabase, err.Error())
	}
	return nil
}

// GetTrades queries the trade ledger.
func (s *SQLiteStore) GetTrades(ctx context.Context, filter TradeFilter) ([]models.TradeRecord, error) {
	query := `
		SELECT transaction_id, confirmation, source, reference, customer_name,
		       fulfillment, items, busted, total_cost, executed_at
		FROM trades WHERE 1=1`
	var args []interface{}

	if filter.Source != "" {
		query += " AND source = ?"
		args = append(args, filter.Source)
	}
	if !filter.StartDate.IsZero() {
		query += " AND executed_at >= ?"
		args = append(args, filter.StartDate)
	}
	if !filter.EndDate.IsZero() {
		query += " AND executed_at <= ?"
		args = append(args, filter.EndDate)
	}
	query += " ORDER BY executed_at DESC"
	if filter.Limit > 0 {
		query += " LIMIT ?"
		args = append(args, filter.Limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, errors.Wrap(errors.ErrDatabase, err.Error())
	}
	defer rows.Close()

	var records []models.TradeRecord
	for rows.Next() {
		rec, err := scanTrade(rows)
		if err != nil {
			return nil, errors.Wrap(errors.ErrDatabase, err.Error())
		}
		records = append(records, *rec)
	}
	return records, rows.Err()
}

// GetTradeByTransaction fetches a ledger entry by lock transaction ID. Used
// for manual reconciliation after an uncertain execute.
func (s *SQLiteStore) GetTradeByTransaction(ctx context.Context, transactionID string) (*models.TradeRecord, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT transaction_id, confirmation, source, reference, customer_name,
		       fulfillment, items, busted, total_cost, executed_at
		FROM trades WHERE transaction_id = ?`, transactionID)

	rec, err := scanTrade(row)
	if err == sql.ErrNoRows {
		return nil, errors.Wrapf(errors.ErrNotFound, "trade %s", transactionID)
	}
	if err != nil {
		return nil, errors.Wrap(errors.ErrDatabase, err.Error())
	}
	return rec, nil
}

func scanTrade(row rowScanner) (*models.TradeRecord, error) {
	var rec models.TradeRecord
	var reference, customer sql.NullString
	var fulfillment, items string
	var busted sql.NullString

	err := row.Scan(
		&rec.TransactionID, &rec.ConfirmationNumber, &rec.Source,
		&reference, &customer, &fulfillment, &items, &busted,
		&rec.TotalCost, &rec.ExecutedAt,
	)
	if err != nil {
		return nil, err
	}

	rec.Reference = reference.String
	rec.CustomerName = customer.String
	rec.Fulfillment = models.FulfillmentMethod(fulfillment)

	if err := json.Unmarshal([]byte(items), &rec.Filled); err != nil {
		return nil, fmt.Errorf("decoding filled items: %w", err)
	}
	if busted.Valid && busted.String != "" {
		if err := json.Unmarshal([]byte(busted.String), &rec.Busted); err != nil {
			return nil, fmt.Errorf("decoding busted items: %w", err)
		}
	}
	return &rec, nil
}

// SearchCustomers looks up customers by name, email, or phone fragment.
func (s *SQLiteStore) SearchCustomers(ctx context.Context, query string) ([]models.Customer, error) {
	pattern := "%" + strings.TrimSpace(query) + "%"
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, name, email, phone FROM customers
		WHERE name LIKE ? OR email LIKE ? OR phone LIKE ?
		ORDER BY name LIMIT 50`,
		pattern, pattern, pattern)
	if err != nil {
		return nil, errors.Wrap(errors.ErrDatabase, err.Error())
	}
	defer rows.Close()

	var customers []models.Customer
	for rows.Next() {
		var c models.Customer
		var email, phone sql.NullString
		if err := rows.Scan(&c.ID, &c.Name, &email, &phone); err != nil {
			return nil, errors.Wrap(errors.ErrDatabase, err.Error())
		}
		c.Email = email.String
		c.Phone = phone.String
		customers = append(customers, c)
	}
	return customers, rows.Err()
}

// GetCustomer fetches a customer by ID.
func (s *SQLiteStore) GetCustomer(ctx context.Context, id string) (*models.Customer, error) {
	var c models.Customer
	var email, phone sql.NullString
	err := s.db.QueryRowContext(ctx,
		`SELECT id, name, email, phone FROM customers WHERE id = ?`, id).
		Scan(&c.ID, &c.Name, &email, &phone)
	if err == sql.ErrNoRows {
		return nil, errors.Wrapf(errors.ErrNotFound, "customer %s", id)
	}
	if err != nil {
		return nil, errors.Wrap(errors.ErrDatabase, err.Error())
	}
	c.Email = email.String
	c.Phone = phone.String
	return &c, nil
}

// AddCustomer inserts a customer into the directory.
func (s *SQLiteStore) AddCustomer(ctx context.Context, c *models.Customer) error {
	if c.ID == "" {
		c.ID = uuid.NewString()
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO customers (id, name, email, phone) VALUES (?, ?, ?, ?)`,
		c.ID, c.Name, c.Email, c.Phone)
	if err != nil {
		return errors.Wrap(errors.ErrDatabase, err.Error())
	}
	return nil
}

// Close closes the database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}
