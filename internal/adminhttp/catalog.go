package adminhttp

import (
	"github.com/gofiber/fiber/v2"

	"github.com/AntonStoeckl/library-circulation-go/features/command/addbook"
	"github.com/AntonStoeckl/library-circulation-go/features/command/registerstudent"
	"github.com/AntonStoeckl/library-circulation-go/features/command/removebook"
	"github.com/AntonStoeckl/library-circulation-go/features/command/removestudent"
	"github.com/AntonStoeckl/library-circulation-go/features/query/catalog"
)

// listBooks returns all books, or only the available ones with ?available=true.
// ?search=term keeps the books whose title or author contains term, ignoring case.
func (s *Server) listBooks(c *fiber.Ctx) error {
	query := catalog.BuildQuery(c.QueryBool("available")).WithSearch(c.Query("search"))

	result, err := s.handlers.Catalog.Handle(c.UserContext(), query)
	if err != nil {
		return err
	}

	books := make([]bookResponse, 0, len(result.Books))
	for _, book := range result.Books {
		books = append(books, toBookResponse(book))
	}

	return c.JSON(books)
}

func (s *Server) addBook(c *fiber.Ctx) error {
	var req addBookRequest
	if err := s.bind(c, &req); err != nil {
		return err
	}

	result, err := s.handlers.AddBook.Handle(c.UserContext(), addbook.BuildCommand(req.Title, req.Author))
	if err != nil {
		return err
	}

	book, err := s.directory.GetBook(c.UserContext(), result.RecordID)
	if err != nil {
		return err
	}

	return c.Status(fiber.StatusCreated).JSON(toBookResponse(book))
}

func (s *Server) removeBook(c *fiber.Ctx) error {
	id, err := idParam(c)
	if err != nil {
		return err
	}

	if _, err = s.handlers.RemoveBook.Handle(c.UserContext(), removebook.BuildCommand(id)); err != nil {
		return err
	}

	return c.SendStatus(fiber.StatusNoContent)
}

func (s *Server) listStudents(c *fiber.Ctx) error {
	result, err := s.handlers.Catalog.Handle(c.UserContext(), catalog.BuildQuery(false))
	if err != nil {
		return err
	}

	students := make([]studentResponse, 0, len(result.Students))
	for _, student := range result.Students {
		students = append(students, toStudentResponse(student))
	}

	return c.JSON(students)
}

func (s *Server) registerStudent(c *fiber.Ctx) error {
	var req registerStudentRequest
	if err := s.bind(c, &req); err != nil {
		return err
	}

	result, err := s.handlers.RegisterStudent.Handle(c.UserContext(), registerstudent.BuildCommand(req.Name, req.Email))
	if err != nil {
		return err
	}

	student, err := s.directory.GetStudent(c.UserContext(), result.RecordID)
	if err != nil {
		return err
	}

	return c.Status(fiber.StatusCreated).JSON(toStudentResponse(student))
}

func (s *Server) removeStudent(c *fiber.Ctx) error {
	id, err := idParam(c)
	if err != nil {
		return err
	}

	if _, err = s.handlers.RemoveStudent.Handle(c.UserContext(), removestudent.BuildCommand(id)); err != nil {
		return err
	}

	return c.SendStatus(fiber.StatusNoContent)
}
