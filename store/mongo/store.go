// Package mongo implements store.Store on MongoDB via the official driver.
// Find-or-create rides on unique indexes with $setOnInsert upserts, int64
// document ids come from a counters collection, and journal row batches are
// written inside a multi-document transaction, so the server must be a
// replica set (or sharded cluster) for posting to work.
package mongo

import (
	"context"
	"errors"
	"fmt"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"

	journal "github.com/bookkeep/journal"
	"github.com/bookkeep/journal/account"
	"github.com/bookkeep/journal/document"
	"github.com/bookkeep/journal/id"
	"github.com/bookkeep/journal/ledger"
	"github.com/bookkeep/journal/posting"
	journalstore "github.com/bookkeep/journal/store"
)

// Collection name constants.
const (
	colLedgers   = "journal_ledgers"
	colAccounts  = "journal_accounts"
	colDocuments = "journal_documents"
	colRows      = "journal_rows"
	colCounters  = "journal_counters"
)

// compile-time interface check
var _ journalstore.Store = (*Store)(nil)

// Store implements store.Store using MongoDB.
type Store struct {
	client *mongo.Client
	db     *mongo.Database
}

// New connects to MongoDB and selects the given database.
func New(uri, database string) (*Store, error) {
	client, err := mongo.Connect(options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("journal/mongo: connect: %w", err)
	}
	return &Store{client: client, db: client.Database(database)}, nil
}

// NewWithClient wraps an existing client.
func NewWithClient(client *mongo.Client, database string) *Store {
	return &Store{client: client, db: client.Database(database)}
}

// Migrate creates the unique and query indexes for all collections.
func (s *Store) Migrate(ctx context.Context) error {
	indexes := migrationIndexes()

	for col, models := range indexes {
		if len(models) == 0 {
			continue
		}
		_, err := s.db.Collection(col).Indexes().CreateMany(ctx, models)
		if err != nil {
			return fmt.Errorf("journal/mongo: migrate %s indexes: %w", col, err)
		}
	}
	return nil
}

// Ping checks database connectivity.
func (s *Store) Ping(ctx context.Context) error {
	return s.client.Ping(ctx, nil)
}

// Close disconnects the client.
func (s *Store) Close() error {
	return s.client.Disconnect(context.Background())
}

// ==================== Ledger Store ====================

func (s *Store) UpsertLedger(ctx context.Context, led *ledger.Ledger) (*ledger.Ledger, bool, error) {
	var m ledgerModel
	err := s.db.Collection(colLedgers).FindOneAndUpdate(ctx,
		bson.M{"tenant_id": led.TenantID, "name": led.Name},
		bson.M{"$setOnInsert": toLedgerModel(led)},
		options.FindOneAndUpdate().SetUpsert(true).SetReturnDocument(options.After),
	).Decode(&m)
	if err != nil {
		// Two racing upserts can both try to insert; the loser sees the
		// unique index and reads the winner's row.
		if mongo.IsDuplicateKeyError(err) {
			stored, getErr := s.GetLedgerByName(ctx, led.TenantID, led.Name)
			return stored, false, getErr
		}
		return nil, false, fmt.Errorf("journal/mongo: upsert ledger: %w", err)
	}

	stored, err := fromLedgerModel(&m)
	if err != nil {
		return nil, false, err
	}
	return stored, stored.ID == led.ID, nil
}

func (s *Store) GetLedger(ctx context.Context, ledgerID id.LedgerID) (*ledger.Ledger, error) {
	var m ledgerModel
	err := s.db.Collection(colLedgers).FindOne(ctx, bson.M{"_id": ledgerID.String()}).Decode(&m)
	if err != nil {
		if isNoDocuments(err) {
			return nil, journal.ErrLedgerNotFound
		}
		return nil, fmt.Errorf("journal/mongo: get ledger: %w", err)
	}
	return fromLedgerModel(&m)
}

func (s *Store) GetLedgerByName(ctx context.Context, tenantID, name string) (*ledger.Ledger, error) {
	var m ledgerModel
	err := s.db.Collection(colLedgers).FindOne(ctx, bson.M{"tenant_id": tenantID, "name": name}).Decode(&m)
	if err != nil {
		if isNoDocuments(err) {
			return nil, journal.ErrLedgerNotFound
		}
		return nil, fmt.Errorf("journal/mongo: get ledger by name: %w", err)
	}
	return fromLedgerModel(&m)
}

// ==================== Account Store ====================

func (s *Store) UpsertAccount(ctx context.Context, acct *account.Account) (*account.Account, bool, error) {
	var m accountModel
	err := s.db.Collection(colAccounts).FindOneAndUpdate(ctx,
		bson.M{"ledger_id": acct.LedgerID.String(), "name": acct.Name},
		bson.M{"$setOnInsert": toAccountModel(acct)},
		options.FindOneAndUpdate().SetUpsert(true).SetReturnDocument(options.After),
	).Decode(&m)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			stored, getErr := s.GetAccountByName(ctx, acct.LedgerID, acct.Name)
			return stored, false, getErr
		}
		return nil, false, fmt.Errorf("journal/mongo: upsert account: %w", err)
	}

	stored, err := fromAccountModel(&m)
	if err != nil {
		return nil, false, err
	}
	return stored, stored.ID == acct.ID, nil
}

func (s *Store) GetAccount(ctx context.Context, ledgerID id.LedgerID, accountID id.AccountID) (*account.Account, error) {
	var m accountModel
	err := s.db.Collection(colAccounts).FindOne(ctx,
		bson.M{"_id": accountID.String(), "ledger_id": ledgerID.String()}).Decode(&m)
	if err != nil {
		if isNoDocuments(err) {
			return nil, journal.ErrNotFound
		}
		return nil, fmt.Errorf("journal/mongo: get account: %w", err)
	}
	return fromAccountModel(&m)
}

func (s *Store) GetAccountByName(ctx context.Context, ledgerID id.LedgerID, name string) (*account.Account, error) {
	var m accountModel
	err := s.db.Collection(colAccounts).FindOne(ctx,
		bson.M{"ledger_id": ledgerID.String(), "name": name}).Decode(&m)
	if err != nil {
		if isNoDocuments(err) {
			return nil, journal.ErrNotFound
		}
		return nil, fmt.Errorf("journal/mongo: get account by name: %w", err)
	}
	return fromAccountModel(&m)
}

func (s *Store) ListAccounts(ctx context.Context, ledgerID id.LedgerID) ([]*account.Account, error) {
	cur, err := s.db.Collection(colAccounts).Find(ctx,
		bson.M{"ledger_id": ledgerID.String()},
		options.Find().SetSort(bson.D{{Key: "name", Value: 1}}),
	)
	if err != nil {
		return nil, fmt.Errorf("journal/mongo: list accounts: %w", err)
	}
	defer cur.Close(ctx)

	var accounts []*account.Account
	for cur.Next(ctx) {
		var m accountModel
		if err := cur.Decode(&m); err != nil {
			return nil, err
		}
		acct, err := fromAccountModel(&m)
		if err != nil {
			return nil, err
		}
		accounts = append(accounts, acct)
	}
	return accounts, cur.Err()
}

// ==================== Document Store ====================

func (s *Store) CreateDocument(ctx context.Context, doc *document.Document) (int64, error) {
	docID, err := s.nextSequence(ctx, "document_id")
	if err != nil {
		return 0, err
	}

	m := toDocumentModel(doc)
	m.ID = docID
	_, err = s.db.Collection(colDocuments).InsertOne(ctx, m)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return 0, fmt.Errorf("%w: %s", journal.ErrDocumentExists, doc.Key())
		}
		return 0, fmt.Errorf("journal/mongo: create document: %w", err)
	}
	return docID, nil
}

func (s *Store) GetDocumentID(ctx context.Context, ledgerID id.LedgerID, typ document.Type, reference string) (int64, bool, error) {
	var m struct {
		ID int64 `bson:"_id"`
	}
	err := s.db.Collection(colDocuments).FindOne(ctx,
		bson.M{"ledger_id": ledgerID.String(), "type": string(typ), "reference": reference},
		options.FindOne().SetProjection(bson.M{"_id": 1}),
	).Decode(&m)
	if err != nil {
		if isNoDocuments(err) {
			return 0, false, nil
		}
		return 0, false, fmt.Errorf("journal/mongo: get document id: %w", err)
	}
	return m.ID, true, nil
}

func (s *Store) GetDocument(ctx context.Context, ledgerID id.LedgerID, docID int64) (*document.Document, error) {
	var m documentModel
	err := s.db.Collection(colDocuments).FindOne(ctx,
		bson.M{"_id": docID, "ledger_id": ledgerID.String()}).Decode(&m)
	if err != nil {
		if isNoDocuments(err) {
			return nil, journal.ErrDocumentNotFound
		}
		return nil, fmt.Errorf("journal/mongo: get document: %w", err)
	}
	return fromDocumentModel(&m)
}

func (s *Store) UpdateDocument(ctx context.Context, doc *document.Document) error {
	update := bson.M{
		"party_kind": string(doc.Party.Kind),
		"party_id":   doc.Party.ID,
		"date":       doc.Date,
		"number":     doc.Number,
		"updated_at": doc.UpdatedAt,
	}
	set := bson.M{"$set": update}
	if doc.DueDate != nil {
		update["due_date"] = *doc.DueDate
	} else {
		set["$unset"] = bson.M{"due_date": ""}
	}

	res, err := s.db.Collection(colDocuments).UpdateOne(ctx,
		bson.M{"_id": doc.ID, "ledger_id": doc.LedgerID.String()}, set)
	if err != nil {
		return fmt.Errorf("journal/mongo: update document: %w", err)
	}
	if res.MatchedCount == 0 {
		return journal.ErrDocumentNotFound
	}
	return nil
}

// nextSequence atomically increments and returns the named counter.
func (s *Store) nextSequence(ctx context.Context, name string) (int64, error) {
	var counter struct {
		Seq int64 `bson:"seq"`
	}
	err := s.db.Collection(colCounters).FindOneAndUpdate(ctx,
		bson.M{"_id": name},
		bson.M{"$inc": bson.M{"seq": int64(1)}},
		options.FindOneAndUpdate().SetUpsert(true).SetReturnDocument(options.After),
	).Decode(&counter)
	if err != nil {
		return 0, fmt.Errorf("journal/mongo: next sequence %s: %w", name, err)
	}
	return counter.Seq, nil
}

// ==================== Journal Store ====================

func (s *Store) InsertRows(ctx context.Context, rows []*posting.Row) error {
	models := make([]any, len(rows))
	for i, r := range rows {
		models[i] = toRowModel(r)
	}

	sess, err := s.client.StartSession()
	if err != nil {
		return fmt.Errorf("journal/mongo: start session: %w", err)
	}
	defer sess.EndSession(ctx)

	_, err = sess.WithTransaction(ctx, func(ctx context.Context) (any, error) {
		return s.db.Collection(colRows).InsertMany(ctx, models)
	})
	if err != nil {
		return fmt.Errorf("journal/mongo: insert rows: %w", err)
	}
	return nil
}

func (s *Store) ListRows(ctx context.Context, ledgerID id.LedgerID, opts posting.ListOpts) ([]*posting.Row, error) {
	filter := bson.M{"ledger_id": ledgerID.String()}
	if !opts.AccountID.IsNil() {
		filter["account_id"] = opts.AccountID.String()
	}
	if !opts.TransactionID.IsNil() {
		filter["transaction_id"] = opts.TransactionID.String()
	}
	if opts.DocumentID != 0 {
		filter["document_id"] = opts.DocumentID
	}
	if !opts.From.IsZero() || !opts.To.IsZero() {
		dateFilter := bson.M{}
		if !opts.From.IsZero() {
			dateFilter["$gte"] = opts.From
		}
		if !opts.To.IsZero() {
			dateFilter["$lt"] = opts.To
		}
		filter["date"] = dateFilter
	}

	findOpts := options.Find().SetSort(bson.D{{Key: "created_at", Value: 1}, {Key: "_id", Value: 1}})
	if opts.Limit > 0 {
		findOpts.SetLimit(int64(opts.Limit))
	}
	if opts.Offset > 0 {
		findOpts.SetSkip(int64(opts.Offset))
	}

	cur, err := s.db.Collection(colRows).Find(ctx, filter, findOpts)
	if err != nil {
		return nil, fmt.Errorf("journal/mongo: list rows: %w", err)
	}
	defer cur.Close(ctx)

	var result []*posting.Row
	for cur.Next(ctx) {
		var m rowModel
		if err := cur.Decode(&m); err != nil {
			return nil, err
		}
		r, err := fromRowModel(&m)
		if err != nil {
			return nil, err
		}
		result = append(result, r)
	}
	return result, cur.Err()
}

func (s *Store) SumAccount(ctx context.Context, ledgerID id.LedgerID, accountID id.AccountID) (int64, error) {
	pipeline := mongo.Pipeline{
		{{Key: "$match", Value: bson.M{
			"ledger_id":  ledgerID.String(),
			"account_id": accountID.String(),
		}}},
		{{Key: "$group", Value: bson.M{
			"_id": nil,
			"sum": bson.M{"$sum": bson.M{"$cond": bson.A{
				bson.M{"$eq": bson.A{"$polarity", string(posting.Debit)}},
				"$amount",
				bson.M{"$subtract": bson.A{0, "$amount"}},
			}}},
		}}},
	}

	cur, err := s.db.Collection(colRows).Aggregate(ctx, pipeline)
	if err != nil {
		return 0, fmt.Errorf("journal/mongo: sum account: %w", err)
	}
	defer cur.Close(ctx)

	var agg struct {
		Sum int64 `bson:"sum"`
	}
	if cur.Next(ctx) {
		if err := cur.Decode(&agg); err != nil {
			return 0, err
		}
	}
	return agg.Sum, cur.Err()
}

// ==================== helpers ====================

// isNoDocuments checks if an error wraps mongo.ErrNoDocuments.
func isNoDocuments(err error) bool {
	return errors.Is(err, mongo.ErrNoDocuments)
}

// migrationIndexes returns the index definitions for all journal collections.
func migrationIndexes() map[string][]mongo.IndexModel {
	return map[string][]mongo.IndexModel{
		colLedgers: {
			{
				Keys:    bson.D{{Key: "tenant_id", Value: 1}, {Key: "name", Value: 1}},
				Options: options.Index().SetUnique(true),
			},
		},
		colAccounts: {
			{
				Keys:    bson.D{{Key: "ledger_id", Value: 1}, {Key: "name", Value: 1}},
				Options: options.Index().SetUnique(true),
			},
		},
		colDocuments: {
			{
				Keys:    bson.D{{Key: "ledger_id", Value: 1}, {Key: "type", Value: 1}, {Key: "reference", Value: 1}},
				Options: options.Index().SetUnique(true),
			},
		},
		colRows: {
			{Keys: bson.D{{Key: "ledger_id", Value: 1}, {Key: "account_id", Value: 1}}},
			{Keys: bson.D{{Key: "ledger_id", Value: 1}, {Key: "transaction_id", Value: 1}}},
			{Keys: bson.D{{Key: "ledger_id", Value: 1}, {Key: "document_id", Value: 1}}},
			{Keys: bson.D{{Key: "ledger_id", Value: 1}, {Key: "date", Value: 1}}},
		},
		colCounters: {},
	}
}
