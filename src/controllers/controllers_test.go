package controllers

import (
	"log"
	"net/http"
	"net/http/httptest"
	"regexp"
	"strings"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/gawwe-id/oknum/src/types"
	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

func init() {
	gin.SetMode(gin.TestMode)
	if v, ok := binding.Validator.Engine().(*validator.Validate); ok {
		types.RegisterValidators(v)
	}
}

func NewMockDB() (*gorm.DB, sqlmock.Sqlmock) {
	db, mock, err := sqlmock.New()
	if err != nil {
		log.Fatalf("An error '%s' was not expected when opening a stub database connection", err)
	}
	gormDB, err := gorm.Open(postgres.New(postgres.Config{
		Conn:                 db,
		PreferSimpleProtocol: true,
	}), &gorm.Config{})
	if err != nil {
		log.Fatalf("An error '%s' was not expected when opening gorm database", err)
	}
	return gormDB, mock
}

func testContext(method, target, body string, userId string, staff bool) (*gin.Context, *httptest.ResponseRecorder) {
	w := httptest.NewRecorder()
	ctx, _ := gin.CreateTestContext(w)
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, target, nil)
	} else {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	ctx.Request = req
	ctx.Set("id", userId)
	ctx.Set("staff", staff)
	return ctx, w
}

func TestCreateIssue(t *testing.T) {
	gdb, mock := NewMockDB()
	ctx, _ := testContext(http.MethodPost, "/api/issues", `{"subject":"Invoice missing","description":"No email after paying"}`, "user_1", false)

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta(`INSERT INTO "issues"`)).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	issue, status, err := CreateIssue(ctx, gdb)
	require.NoError(t, err)
	assert.Equal(t, http.StatusCreated, status)
	assert.True(t, strings.HasPrefix(issue.ID, "iss_"))
	assert.Equal(t, "user_1", issue.ReporterID)
	assert.Equal(t, "other", issue.Category)
	assert.Equal(t, types.ISSUE_OPEN, issue.Status)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCreateIssueForeignBooking(t *testing.T) {
	gdb, mock := NewMockDB()
	ctx, _ := testContext(http.MethodPost, "/api/issues", `{"subject":"Refund","description":"Cancelled class","category":"booking","bookingId":"bk_9"}`, "user_1", false)

	mock.ExpectQuery(regexp.QuoteMeta(`SELECT count(*) FROM "bookings" WHERE id = $1 AND student_id = $2`)).
		WithArgs("bk_9", "user_1").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(0))

	_, status, err := CreateIssue(ctx, gdb)
	assert.Error(t, err)
	assert.Equal(t, http.StatusNotFound, status)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCreateIssueValidation(t *testing.T) {
	gdb, _ := NewMockDB()
	ctx, _ := testContext(http.MethodPost, "/api/issues", `{"subject":"x","description":"y","category":"weather"}`, "user_1", false)
	_, status, err := CreateIssue(ctx, gdb)
	assert.Error(t, err)
	assert.Equal(t, http.StatusBadRequest, status)
}

func TestListIssuesScopedToReporter(t *testing.T) {
	gdb, mock := NewMockDB()
	ctx, _ := testContext(http.MethodGet, "/api/issues?status=open", "", "user_1", false)

	mock.ExpectQuery(regexp.QuoteMeta(`SELECT * FROM "issues" WHERE reporter_id = $1 AND status = $2`)).
		WithArgs("user_1", "open").
		WillReturnRows(sqlmock.NewRows([]string{"id", "reporter_id", "status"}).AddRow("iss_1", "user_1", "open"))

	issues, status, err := ListIssues(ctx, gdb)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, status)
	require.Len(t, issues, 1)
	assert.Equal(t, "iss_1", issues[0].ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestListIssuesStaffSeesAll(t *testing.T) {
	gdb, mock := NewMockDB()
	ctx, _ := testContext(http.MethodGet, "/api/issues", "", "user_admin", true)

	mock.ExpectQuery(regexp.QuoteMeta(`SELECT * FROM "issues" WHERE "issues"."deleted_at" IS NULL ORDER BY created_at DESC`)).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow("iss_1").AddRow("iss_2"))

	issues, _, err := ListIssues(ctx, gdb)
	require.NoError(t, err)
	assert.Len(t, issues, 2)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGetIssueNotFound(t *testing.T) {
	gdb, mock := NewMockDB()
	ctx, _ := testContext(http.MethodGet, "/api/issues/iss_404", "", "user_1", false)
	ctx.Params = gin.Params{{Key: "id", Value: "iss_404"}}

	mock.ExpectQuery(regexp.QuoteMeta(`SELECT * FROM "issues" WHERE id = $1 AND reporter_id = $2`)).
		WillReturnRows(sqlmock.NewRows([]string{"id"}))

	_, status, err := GetIssue(ctx, gdb)
	assert.Error(t, err)
	assert.Equal(t, http.StatusNotFound, status)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUpdateIssueRejectsUnknownStatus(t *testing.T) {
	gdb, _ := NewMockDB()
	ctx, _ := testContext(http.MethodPatch, "/api/issues/iss_1", `{"status":"done"}`, "user_admin", true)
	ctx.Params = gin.Params{{Key: "id", Value: "iss_1"}}
	_, status, err := UpdateIssue(ctx, gdb)
	assert.Error(t, err)
	assert.Equal(t, http.StatusBadRequest, status)
}

func TestUpdateIssue(t *testing.T) {
	gdb, mock := NewMockDB()
	ctx, _ := testContext(http.MethodPatch, "/api/issues/iss_1", `{"status":"resolved","resolution":"Invoice resent"}`, "user_admin", true)
	ctx.Params = gin.Params{{Key: "id", Value: "iss_1"}}

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta(`SELECT * FROM "issues" WHERE id = $1`)).
		WillReturnRows(sqlmock.NewRows([]string{"id", "reporter_id", "status"}).AddRow("iss_1", "user_1", "open"))
	mock.ExpectExec(regexp.QuoteMeta(`UPDATE "issues" SET`)).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	issue, status, err := UpdateIssue(ctx, gdb)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, types.ISSUE_RESOLVED, issue.Status)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCreateConsultantRequest(t *testing.T) {
	gdb, mock := NewMockDB()
	ctx, _ := testContext(http.MethodPost, "/api/consultant-requests", `{"topic":"Kubernetes migration","description":"Need a 2 day review","budget":5000000,"contactPhone":"081234567890"}`, "user_1", false)

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta(`INSERT INTO "consultant_requests"`)).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	req, status, err := CreateConsultantRequest(ctx, gdb)
	require.NoError(t, err)
	assert.Equal(t, http.StatusCreated, status)
	assert.True(t, strings.HasPrefix(req.ID, "csr_"))
	assert.Equal(t, types.CONSULTANT_PENDING, req.Status)
	assert.Equal(t, int64(5000000), *req.Budget)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCreateConsultantRequestBadPhone(t *testing.T) {
	gdb, _ := NewMockDB()
	ctx, _ := testContext(http.MethodPost, "/api/consultant-requests", `{"topic":"Go","description":"Help","contactPhone":"12345"}`, "user_1", false)
	_, status, err := CreateConsultantRequest(ctx, gdb)
	assert.Error(t, err)
	assert.Equal(t, http.StatusBadRequest, status)
}

func TestUpdateConsultantRequestNotFound(t *testing.T) {
	gdb, mock := NewMockDB()
	ctx, _ := testContext(http.MethodPatch, "/api/consultant-requests/csr_404", `{"status":"accepted"}`, "user_admin", true)
	ctx.Params = gin.Params{{Key: "id", Value: "csr_404"}}

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta(`SELECT * FROM "consultant_requests" WHERE id = $1`)).
		WillReturnRows(sqlmock.NewRows([]string{"id"}))
	mock.ExpectRollback()

	_, status, err := UpdateConsultantRequest(ctx, gdb)
	assert.Error(t, err)
	assert.Equal(t, http.StatusNotFound, status)
	assert.NoError(t, mock.ExpectationsWereMet())
}
