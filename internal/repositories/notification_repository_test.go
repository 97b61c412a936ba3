package repositories

import (
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/townloop/backend/internal/models"
)

func TestNotificationRepository_CreateNotification(t *testing.T) {
	db, mock, cleanup := setupTestDB(t)
	defer cleanup()

	mock.ExpectBegin()
	mock.ExpectQuery(`INSERT INTO "notifications"`).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(1))
	mock.ExpectCommit()

	repo := NewPostgresNotificationRepository(db)
	err := repo.CreateNotification(&models.Notification{
		Type:        models.NotificationTypeFollow,
		ActorID:     1,
		RecipientID: 2,
		ReferenceID: "1",
		Message:     "Alma started following you",
	})

	assert.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestNotificationRepository_GetUnreadCount(t *testing.T) {
	db, mock, cleanup := setupTestDB(t)
	defer cleanup()

	mock.ExpectQuery(`SELECT count\(\*\) FROM "notifications" WHERE recipient_id = \$1 AND is_read = false`).
		WithArgs(uint(2)).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(4))

	repo := NewPostgresNotificationRepository(db)
	count, err := repo.GetUnreadCount(2)

	assert.NoError(t, err)
	assert.Equal(t, int64(4), count)
}

// The unread badge count and the unread-only listing share the same
// predicate, so the two can never disagree on what counts as unread.
func TestNotificationRepository_UnreadFilterMatchesCountPredicate(t *testing.T) {
	db, mock, cleanup := setupTestDB(t)
	defer cleanup()

	now := time.Now()
	mock.ExpectQuery(`SELECT count\(\*\) FROM "notifications" WHERE recipient_id = \$1 AND is_read = false`).
		WithArgs(uint(2)).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))
	mock.ExpectQuery(`SELECT \* FROM "notifications" WHERE recipient_id = \$1 AND is_read = false ORDER BY created_at DESC`).
		WillReturnRows(sqlmock.NewRows([]string{"id", "type", "actor_id", "recipient_id", "is_read", "created_at"}).
			AddRow(10, "follow", 1, 2, false, now))

	repo := NewPostgresNotificationRepository(db)
	notifications, total, err := repo.GetByRecipientID(2, NotificationFilter{UnreadOnly: true}, 1, 20)

	assert.NoError(t, err)
	assert.Equal(t, int64(1), total)
	assert.Len(t, notifications, 1)
	assert.False(t, notifications[0].IsRead)
}

func TestNotificationRepository_MarkAsRead(t *testing.T) {
	db, mock, cleanup := setupTestDB(t)
	defer cleanup()

	mock.ExpectBegin()
	mock.ExpectExec(`UPDATE "notifications" SET "is_read"=\$1 WHERE id = \$2 AND recipient_id = \$3`).
		WithArgs(true, uint(10), uint(2)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	repo := NewPostgresNotificationRepository(db)
	err := repo.MarkAsRead(10, 2)

	assert.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestNotificationRepository_MarkAllAsRead_OnlyTouchesUnread(t *testing.T) {
	db, mock, cleanup := setupTestDB(t)
	defer cleanup()

	// Scoping the update to unread rows makes a repeat call a no-op
	mock.ExpectBegin()
	mock.ExpectExec(`UPDATE "notifications" SET "is_read"=\$1 WHERE recipient_id = \$2 AND is_read = false`).
		WithArgs(true, uint(2)).
		WillReturnResult(sqlmock.NewResult(0, 3))
	mock.ExpectCommit()

	repo := NewPostgresNotificationRepository(db)
	err := repo.MarkAllAsRead(2)

	assert.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestNotificationRepository_DeleteNotification(t *testing.T) {
	db, mock, cleanup := setupTestDB(t)
	defer cleanup()

	mock.ExpectBegin()
	mock.ExpectExec(`DELETE FROM "notifications" WHERE id = \$1 AND recipient_id = \$2`).
		WithArgs(uint(10), uint(2)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	repo := NewPostgresNotificationRepository(db)
	err := repo.DeleteNotification(10, 2)

	assert.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}
