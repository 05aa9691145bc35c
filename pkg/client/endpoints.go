package client

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"

	"github.com/shishobooks/libris/pkg/config"
	"github.com/shishobooks/libris/pkg/dashboard"
	"github.com/shishobooks/libris/pkg/models"
	"github.com/shishobooks/libris/pkg/session"
)

func request[T any](ctx context.Context, c *Client, method, path string, query url.Values, body any) (*T, error) {
	res := new(T)
	if err := c.do(ctx, method, path, query, body, res); err != nil {
		return nil, err
	}
	return res, nil
}

type authResponse struct {
	Token string       `json:"token"`
	User  session.User `json:"user"`
}

type RegisterRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
	Role     string `json:"role,omitempty"`
}

// Login exchanges credentials for a token and stores the new session.
func (c *Client) Login(ctx context.Context, email, password string) (*session.Session, error) {
	res := authResponse{}
	body := map[string]string{"email": email, "password": password}
	if err := c.do(ctx, http.MethodPost, "/auth/login", nil, body, &res); err != nil {
		return nil, err
	}
	sess := &session.Session{Token: res.Token, User: res.User}
	return sess, c.setSession(sess)
}

// Register creates an account and logs in as it.
func (c *Client) Register(ctx context.Context, req RegisterRequest) (*session.Session, error) {
	res := authResponse{}
	if err := c.do(ctx, http.MethodPost, "/auth/register", nil, req, &res); err != nil {
		return nil, err
	}
	sess := &session.Session{Token: res.Token, User: res.User}
	return sess, c.setSession(sess)
}

type ListOptions struct {
	Search string
	Limit  int
	Offset int
}

func (o ListOptions) values() url.Values {
	v := url.Values{}
	if o.Search != "" {
		v.Set("search", o.Search)
	}
	if o.Limit > 0 {
		v.Set("limit", strconv.Itoa(o.Limit))
	}
	if o.Offset > 0 {
		v.Set("offset", strconv.Itoa(o.Offset))
	}
	return v
}

type BookList struct {
	Books []*models.Book `json:"books"`
	Total int            `json:"total"`
}

type BookInput struct {
	Title       string `json:"title"`
	Author      string `json:"author"`
	ISBN        string `json:"isbn"`
	TotalCopies int    `json:"total_copies"`
}

func (c *Client) ListBooks(ctx context.Context, opts ListOptions) (*BookList, error) {
	return request[BookList](ctx, c, http.MethodGet, "/books", opts.values(), nil)
}

func (c *Client) GetBook(ctx context.Context, id int) (*models.Book, error) {
	return request[models.Book](ctx, c, http.MethodGet, fmt.Sprintf("/books/%d", id), nil, nil)
}

func (c *Client) CreateBook(ctx context.Context, in BookInput) (*models.Book, error) {
	return request[models.Book](ctx, c, http.MethodPost, "/books", nil, in)
}

func (c *Client) UpdateBook(ctx context.Context, id int, in BookInput) (*models.Book, error) {
	return request[models.Book](ctx, c, http.MethodPut, fmt.Sprintf("/books/%d", id), nil, in)
}

func (c *Client) DeleteBook(ctx context.Context, id int) error {
	return c.do(ctx, http.MethodDelete, fmt.Sprintf("/books/%d", id), nil, nil, nil)
}

type StudentList struct {
	Students []*models.Student `json:"students"`
	Total    int               `json:"total"`
}

type StudentInput struct {
	Name       string `json:"name"`
	RollNo     string `json:"roll_no"`
	Department string `json:"department"`
	Email      string `json:"email"`
	JoinDate   string `json:"join_date,omitempty"`
}

// StudentUpdate only sends the fields that are set.
type StudentUpdate struct {
	Name       *string `json:"name,omitempty"`
	RollNo     *string `json:"roll_no,omitempty"`
	Department *string `json:"department,omitempty"`
	Email      *string `json:"email,omitempty"`
	JoinDate   *string `json:"join_date,omitempty"`
}

func (c *Client) ListStudents(ctx context.Context, opts ListOptions) (*StudentList, error) {
	return request[StudentList](ctx, c, http.MethodGet, "/students", opts.values(), nil)
}

func (c *Client) GetStudent(ctx context.Context, id int) (*models.Student, error) {
	return request[models.Student](ctx, c, http.MethodGet, fmt.Sprintf("/students/%d", id), nil, nil)
}

func (c *Client) CreateStudent(ctx context.Context, in StudentInput) (*models.Student, error) {
	return request[models.Student](ctx, c, http.MethodPost, "/students", nil, in)
}

func (c *Client) UpdateStudent(ctx context.Context, id int, in StudentUpdate) (*models.Student, error) {
	return request[models.Student](ctx, c, http.MethodPut, fmt.Sprintf("/students/%d", id), nil, in)
}

func (c *Client) DeleteStudent(ctx context.Context, id int) error {
	return c.do(ctx, http.MethodDelete, fmt.Sprintf("/students/%d", id), nil, nil, nil)
}

type RecordList struct {
	Records []*models.BorrowRecord `json:"records"`
	Total   int                    `json:"total"`
}

type RecordFilter struct {
	Status    string
	StudentID int
	BookID    int
	Overdue   bool
	Limit     int
	Offset    int
}

func (f RecordFilter) values() url.Values {
	v := ListOptions{Limit: f.Limit, Offset: f.Offset}.values()
	if f.Status != "" {
		v.Set("status", f.Status)
	}
	if f.StudentID > 0 {
		v.Set("student_id", strconv.Itoa(f.StudentID))
	}
	if f.BookID > 0 {
		v.Set("book_id", strconv.Itoa(f.BookID))
	}
	if f.Overdue {
		v.Set("overdue", "true")
	}
	return v
}

func (c *Client) StudentHistory(ctx context.Context, studentID int) (*RecordList, error) {
	return request[RecordList](ctx, c, http.MethodGet, fmt.Sprintf("/students/%d/borrow-history", studentID), nil, nil)
}

func (c *Client) ListRecords(ctx context.Context, filter RecordFilter) (*RecordList, error) {
	return request[RecordList](ctx, c, http.MethodGet, "/borrow-records", filter.values(), nil)
}

func (c *Client) GetRecord(ctx context.Context, id int) (*models.BorrowRecord, error) {
	return request[models.BorrowRecord](ctx, c, http.MethodGet, fmt.Sprintf("/borrow-records/%d", id), nil, nil)
}

func (c *Client) Issue(ctx context.Context, studentID, bookID int) (*models.BorrowRecord, error) {
	body := map[string]int{"student_id": studentID, "book_id": bookID}
	return request[models.BorrowRecord](ctx, c, http.MethodPost, "/borrow-records/issue", nil, body)
}

func (c *Client) Return(ctx context.Context, recordID int) (*models.BorrowRecord, error) {
	return request[models.BorrowRecord](ctx, c, http.MethodPost, fmt.Sprintf("/borrow-records/%d/return", recordID), nil, nil)
}

func (c *Client) MyHistory(ctx context.Context) (*RecordList, error) {
	return request[RecordList](ctx, c, http.MethodGet, "/borrow-records/my-history", nil, nil)
}

func (c *Client) Stats(ctx context.Context) (*dashboard.Stats, error) {
	return request[dashboard.Stats](ctx, c, http.MethodGet, "/dashboard/stats", nil, nil)
}

func (c *Client) MyStats(ctx context.Context) (*dashboard.StudentStats, error) {
	return request[dashboard.StudentStats](ctx, c, http.MethodGet, "/dashboard/my-stats", nil, nil)
}

func (c *Client) Config(ctx context.Context) (*config.PublicConfig, error) {
	return request[config.PublicConfig](ctx, c, http.MethodGet, "/config", nil, nil)
}
