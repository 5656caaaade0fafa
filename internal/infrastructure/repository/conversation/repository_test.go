package conversation

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	domain "github.com/iuridev/sge-messaging-api/internal/domain/messaging"
	"github.com/iuridev/sge-messaging-api/internal/infrastructure/database/entities"
)

func newMockRepository(t *testing.T) (*Repository, sqlmock.Sqlmock) {
	t.Helper()

	sqlDB, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	if err != nil {
		t.Fatalf("sqlmock: %v", err)
	}
	t.Cleanup(func() { sqlDB.Close() })

	db, err := gorm.Open(postgres.New(postgres.Config{Conn: sqlDB}), &gorm.Config{
		TranslateError:         true,
		SkipDefaultTransaction: true,
		Logger:                 logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("open gorm: %v", err)
	}
	return NewRepository(db), mock
}

func conversationRows(rows ...entities.Conversation) *sqlmock.Rows {
	out := sqlmock.NewRows([]string{"id", "protocol", "status", "participant_a", "participant_b", "created_at", "updated_at"})
	for _, row := range rows {
		out.AddRow(row.ID, row.Protocol, row.Status, row.ParticipantA, row.ParticipantB, row.CreatedAt, row.UpdatedAt)
	}
	return out
}

const openPairQuery = `SELECT (.+) FROM "conversations" WHERE status = (.+) AND participant_a = (.+) AND participant_b = (.+)`

func TestCreateConversation_ReturnsExistingOpenRow(t *testing.T) {
	repo, mock := newMockRepository(t)

	now := time.Now()
	mock.ExpectQuery(openPairQuery).
		WithArgs(string(domain.ConversationOpen), "ana", "bia", 1).
		WillReturnRows(conversationRows(entities.Conversation{
			ID:           "conv_1",
			Protocol:     "TKT-20260830-A1B2C3",
			Status:       string(domain.ConversationOpen),
			ParticipantA: "ana",
			ParticipantB: "bia",
			CreatedAt:    now,
			UpdatedAt:    now,
		}))

	// Reversed argument order must hit the same normalized pair.
	conv, err := repo.CreateConversation(context.Background(), "bia", "ana")
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if conv.ID != "conv_1" || conv.Protocol != "TKT-20260830-A1B2C3" {
		t.Fatalf("got %+v, want the existing open row", conv)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestCreateConversation_DuplicatePairResolvesToWinner(t *testing.T) {
	repo, mock := newMockRepository(t)

	mock.ExpectQuery(openPairQuery).
		WithArgs(string(domain.ConversationOpen), "ana", "bia", 1).
		WillReturnRows(conversationRows())
	mock.ExpectExec(`INSERT INTO "conversations"`).
		WillReturnError(&pgconn.PgError{Code: "23505", ConstraintName: "idx_conversation_open_pair"})
	mock.ExpectQuery(openPairQuery).
		WithArgs(string(domain.ConversationOpen), "ana", "bia", 1).
		WillReturnRows(conversationRows(entities.Conversation{
			ID:           "conv_winner",
			Protocol:     "TKT-20260830-X9Y8Z7",
			Status:       string(domain.ConversationOpen),
			ParticipantA: "ana",
			ParticipantB: "bia",
		}))

	// A concurrent first send won the open-pair index between the lookup and
	// the insert; its row is the conversation both sides must converge on.
	conv, err := repo.CreateConversation(context.Background(), "ana", "bia")
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if conv.ID != "conv_winner" {
		t.Fatalf("conversation ID = %q, want the concurrent winner's row", conv.ID)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestCreateConversation_ProtocolCollisionRetries(t *testing.T) {
	repo, mock := newMockRepository(t)

	mock.ExpectQuery(openPairQuery).WillReturnRows(conversationRows())
	mock.ExpectExec(`INSERT INTO "conversations"`).
		WillReturnError(&pgconn.PgError{Code: "23505", ConstraintName: "idx_conversations_protocol"})
	// The pair is still free, so the duplicate was the protocol label and a
	// fresh one is attempted.
	mock.ExpectQuery(openPairQuery).WillReturnRows(conversationRows())
	mock.ExpectExec(`INSERT INTO "conversations"`).
		WillReturnResult(sqlmock.NewResult(0, 1))

	conv, err := repo.CreateConversation(context.Background(), "ana", "bia")
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if conv.ParticipantA != "ana" || conv.ParticipantB != "bia" {
		t.Fatalf("participants = %q/%q, want ana/bia", conv.ParticipantA, conv.ParticipantB)
	}
	if conv.Protocol == "" {
		t.Fatal("created conversation must carry a protocol label")
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestCreateConversation_RejectsSelfConversation(t *testing.T) {
	repo, _ := newMockRepository(t)

	if _, err := repo.CreateConversation(context.Background(), "ana", "ana"); err == nil {
		t.Fatal("expected validation error for identical participants")
	}
}

func TestNormalizePair(t *testing.T) {
	tests := []struct {
		a, b        string
		wantA, want string
	}{
		{"ana", "bia", "ana", "bia"},
		{"bia", "ana", "ana", "bia"},
		{"ana", "ana", "ana", "ana"},
	}
	for _, tt := range tests {
		gotA, gotB := normalizePair(tt.a, tt.b)
		if gotA != tt.wantA || gotB != tt.want {
			t.Errorf("normalizePair(%q, %q) = %q, %q; want %q, %q", tt.a, tt.b, gotA, gotB, tt.wantA, tt.want)
		}
	}
}
