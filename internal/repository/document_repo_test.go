package repository

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/aihub/kbchat-go/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

func mockRepo(t *testing.T) (DocumentRepository, sqlmock.Sqlmock) {
	t.Helper()

	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	gormDB, err := gorm.Open(postgres.New(postgres.Config{
		Conn:                 db,
		PreferSimpleProtocol: true,
	}), &gorm.Config{})
	require.NoError(t, err)

	return NewDocumentRepository(gormDB), mock
}

func TestDocumentRepoGetByFileID(t *testing.T) {
	repo, mock := mockRepo(t)

	now := time.Now()
	rows := sqlmock.NewRows([]string{"id", "file_id", "filename", "storage_path", "status", "uploaded_at"}).
		AddRow(1, "abc-123", "guide.pdf", "data/uploads/abc-123_guide.pdf", "uploaded", now)

	mock.ExpectQuery(`SELECT \* FROM "uploaded_documents" WHERE file_id = \$1`).
		WithArgs("abc-123").
		WillReturnRows(rows)

	doc, err := repo.GetByFileID(context.Background(), "abc-123")
	require.NoError(t, err)
	assert.Equal(t, "abc-123", doc.FileID)
	assert.Equal(t, "guide.pdf", doc.Filename)
	assert.Equal(t, models.DocumentStatusUploaded, doc.Status)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDocumentRepoGetByFileIDNotFound(t *testing.T) {
	repo, mock := mockRepo(t)

	mock.ExpectQuery(`SELECT \* FROM "uploaded_documents"`).
		WithArgs("missing").
		WillReturnRows(sqlmock.NewRows([]string{"id"}))

	_, err := repo.GetByFileID(context.Background(), "missing")
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)
}

func TestDocumentRepoUpdateByFileID(t *testing.T) {
	repo, mock := mockRepo(t)

	mock.ExpectBegin()
	mock.ExpectExec(`UPDATE "uploaded_documents" SET`).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	err := repo.UpdateByFileID(context.Background(), "abc-123", map[string]interface{}{
		"status":          models.DocumentStatusProcessing,
		"processing_step": models.StepExtractingText,
	})
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDocumentRepoCreate(t *testing.T) {
	repo, mock := mockRepo(t)

	mock.ExpectBegin()
	mock.ExpectQuery(`INSERT INTO "uploaded_documents"`).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(1))
	mock.ExpectCommit()

	err := repo.Create(context.Background(), &models.UploadedDocument{
		FileID:      "new-file",
		Filename:    "doc.txt",
		StoragePath: "data/uploads/new-file_doc.txt",
		Status:      models.DocumentStatusUploaded,
		UploadedAt:  time.Now(),
	})
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDocumentRepoList(t *testing.T) {
	repo, mock := mockRepo(t)

	mock.ExpectQuery(`SELECT count\(\*\) FROM "uploaded_documents"`).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(2))

	rows := sqlmock.NewRows([]string{"id", "file_id", "filename", "status"}).
		AddRow(1, "f1", "a.txt", "processed").
		AddRow(2, "f2", "b.txt", "uploaded")
	mock.ExpectQuery(`SELECT \* FROM "uploaded_documents" ORDER BY uploaded_at DESC`).
		WillReturnRows(rows)

	docs, total, err := repo.List(context.Background(), 1, 20)
	require.NoError(t, err)
	assert.Equal(t, int64(2), total)
	assert.Len(t, docs, 2)
}
