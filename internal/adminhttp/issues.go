package adminhttp

import (
	"bytes"
	"fmt"

	"github.com/gofiber/fiber/v2"

	"github.com/AntonStoeckl/library-circulation-go/features/command/issuebook"
	"github.com/AntonStoeckl/library-circulation-go/features/command/returnbook"
	"github.com/AntonStoeckl/library-circulation-go/features/query/exportissuelogs"
	"github.com/AntonStoeckl/library-circulation-go/features/query/librarystats"
	"github.com/AntonStoeckl/library-circulation-go/features/query/loanhistory"
	"github.com/AntonStoeckl/library-circulation-go/features/query/openissues"
)

const exportFileName = "issuelogs.csv"

func (s *Server) issueBook(c *fiber.Ctx) error {
	var req issueBookRequest
	if err := s.bind(c, &req); err != nil {
		return err
	}

	result, err := s.handlers.IssueBook.Handle(c.UserContext(), issuebook.BuildCommand(req.StudentID, req.BookID, s.now()))
	if err != nil {
		return err
	}

	entry, err := s.directory.GetEntry(c.UserContext(), result.RecordID)
	if err != nil {
		return err
	}

	return c.Status(fiber.StatusCreated).JSON(toIssueLogResponse(entry))
}

func (s *Server) returnBook(c *fiber.Ctx) error {
	id, err := idParam(c)
	if err != nil {
		return err
	}

	if _, err = s.handlers.ReturnBook.Handle(c.UserContext(), returnbook.BuildCommand(id, s.now())); err != nil {
		return err
	}

	entry, err := s.directory.GetEntry(c.UserContext(), id)
	if err != nil {
		return err
	}

	return c.JSON(toIssueLogResponse(entry))
}

// openIssues lists the books on loan, optionally for ?student_id=N.
func (s *Server) openIssues(c *fiber.Ctx) error {
	studentID := c.QueryInt("student_id")
	if studentID < 0 {
		return fiber.NewError(fiber.StatusBadRequest, "student_id must not be negative")
	}

	result, err := s.handlers.OpenIssues.Handle(c.UserContext(), openissues.BuildQuery(int64(studentID)))
	if err != nil {
		return err
	}

	return c.JSON(result)
}

// loanHistory lists issue logs newest first, for ?student_id=N or the latest ?limit=N of the whole library.
func (s *Server) loanHistory(c *fiber.Ctx) error {
	studentID := c.QueryInt("student_id")
	if studentID < 0 {
		return fiber.NewError(fiber.StatusBadRequest, "student_id must not be negative")
	}

	defaultLimit := loanhistory.DefaultLimit
	if studentID > 0 {
		defaultLimit = 0
	}

	limit := c.QueryInt("limit", defaultLimit)
	if limit < 0 {
		return fiber.NewError(fiber.StatusBadRequest, "limit must not be negative")
	}

	result, err := s.handlers.LoanHistory.Handle(c.UserContext(), loanhistory.BuildQuery(int64(studentID), limit))
	if err != nil {
		return err
	}

	return c.JSON(result)
}

// exportIssueLogs sends all issue logs as a CSV attachment; ?with_names=true adds name columns.
func (s *Server) exportIssueLogs(c *fiber.Ctx) error {
	export, err := s.handlers.ExportIssueLogs.Handle(c.UserContext(), exportissuelogs.BuildQuery(c.QueryBool("with_names")))
	if err != nil {
		return err
	}

	var buf bytes.Buffer
	if err = export.WriteCSV(&buf); err != nil {
		return err
	}

	c.Set(fiber.HeaderContentType, "text/csv; charset=utf-8")
	c.Set(fiber.HeaderContentDisposition, fmt.Sprintf("attachment; filename=%q", exportFileName))

	return c.Send(buf.Bytes())
}

func (s *Server) stats(c *fiber.Ctx) error {
	result, err := s.handlers.LibraryStats.Handle(c.UserContext(), librarystats.BuildQuery())
	if err != nil {
		return err
	}

	return c.JSON(result)
}
