package adminhttp

import (
	"github.com/gofiber/fiber/v2"
)

// login checks the credentials and starts a session.
func (s *Server) login(c *fiber.Ctx) error {
	var req loginRequest
	if err := s.bind(c, &req); err != nil {
		return err
	}

	admin, err := s.directory.AuthenticateAdmin(c.UserContext(), req.Username, req.Password)
	if err != nil {
		return err
	}

	sess, err := s.sessions.Get(c)
	if err != nil {
		return err
	}

	// A fresh id on every login, so a session id known before login is worthless afterwards.
	if err = sess.Regenerate(); err != nil {
		return err
	}

	sess.Set(sessionKeyAdminID, admin.ID)
	sess.Set(sessionKeyUsername, admin.Username)

	if err = sess.Save(); err != nil {
		return err
	}

	return c.SendStatus(fiber.StatusNoContent)
}

// logout ends the session, if any.
func (s *Server) logout(c *fiber.Ctx) error {
	sess, err := s.sessions.Get(c)
	if err != nil {
		return err
	}

	if err = sess.Destroy(); err != nil {
		return err
	}

	return c.SendStatus(fiber.StatusNoContent)
}
