package adminhttp

import (
	"fmt"

	"github.com/gofiber/fiber/v2"

	"github.com/AntonStoeckl/library-circulation-go/circulation"
)

type loginRequest struct {
	Username string `json:"username" form:"username" validate:"required"`
	Password string `json:"password" form:"password" validate:"required"`
}

type addBookRequest struct {
	Title  string `json:"title" form:"title" validate:"required,max=255"`
	Author string `json:"author" form:"author" validate:"required,max=255"`
}

type registerStudentRequest struct {
	Name  string `json:"name" form:"name" validate:"required,max=255"`
	Email string `json:"email" form:"email" validate:"required,email"`
}

type issueBookRequest struct {
	StudentID int64 `json:"student_id" form:"student_id" validate:"required,gt=0"`
	BookID    int64 `json:"book_id" form:"book_id" validate:"required,gt=0"`
}

type bookResponse struct {
	ID        int64  `json:"id"`
	Title     string `json:"title"`
	Author    string `json:"author"`
	Available bool   `json:"available"`
}

type studentResponse struct {
	ID    int64  `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
}

type issueLogResponse struct {
	LogID      int64  `json:"log_id"`
	StudentID  int64  `json:"student_id"`
	BookID     int64  `json:"book_id"`
	IssueDate  string `json:"issue_date"`
	ReturnDate string `json:"return_date"`
}

func toBookResponse(book circulation.Book) bookResponse {
	return bookResponse{ID: book.ID, Title: book.Title, Author: book.Author, Available: book.Available}
}

func toStudentResponse(student circulation.Student) studentResponse {
	return studentResponse{ID: student.ID, Name: student.Name, Email: student.Email}
}

func toIssueLogResponse(entry circulation.IssueLog) issueLogResponse {
	return issueLogResponse{
		LogID:      entry.ID,
		StudentID:  entry.StudentID,
		BookID:     entry.BookID,
		IssueDate:  entry.IssueDateString(),
		ReturnDate: entry.ReturnDateString(),
	}
}

// bind parses a JSON or form body into req and validates it.
func (s *Server) bind(c *fiber.Ctx, req any) error {
	if err := c.BodyParser(req); err != nil {
		return fmt.Errorf("%w: %w", circulation.ErrInvalidInput, err)
	}

	return s.validate.Struct(req)
}

// idParam reads a positive numeric path parameter.
func idParam(c *fiber.Ctx) (int64, error) {
	id, err := c.ParamsInt("id")
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("%w: id %q", circulation.ErrInvalidInput, c.Params("id"))
	}

	return int64(id), nil
}
