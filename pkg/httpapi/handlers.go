package httpapi

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/gofiber/fiber/v2"

	"github.com/aretw0/ubrain/pkg/brain"
	"github.com/aretw0/ubrain/pkg/core"
)

const (
	cacheList   = "s-maxage=30, stale-while-revalidate=120"
	cacheNone   = "no-cache"
	cacheNever  = "no-store"
	expandParam = "relations"
)

// topLevel parses the :entity parameter. Study collections are served by
// the /studies routes only.
func topLevel(c *fiber.Ctx) (core.EntityName, error) {
	e, err := core.ParseEntity(c.Params("entity"))
	if err != nil {
		return "", err
	}
	if e.IsStudy() {
		return "", fmt.Errorf("%w: %q is a study collection", core.ErrUnknownEntity, e)
	}
	return e, nil
}

func listOptions(c *fiber.Ctx) brain.ListOptions {
	return brain.ListOptions{
		Query:       c.Query("q"),
		Status:      c.Query("status"),
		Area:        c.Query("area"),
		DueFrom:     c.Query("due_from"),
		DueTo:       c.Query("due_to"),
		Expand:      c.Query("expand") == expandParam,
		StartCursor: c.Query("start_cursor"),
	}
}

// payload decodes a JSON object body. An empty body decodes to an empty
// object. Clients may wrap fields in "data".
func payload(c *fiber.Ctx) (map[string]any, error) {
	body := c.Body()
	if len(body) == 0 {
		return map[string]any{}, nil
	}
	var in map[string]any
	if err := json.Unmarshal(body, &in); err != nil || in == nil {
		return nil, errInvalidJSON
	}
	if data, ok := in["data"].(map[string]any); ok {
		if id, ok := in["id"]; ok {
			data["id"] = id
		}
		return data, nil
	}
	return in, nil
}

// recordID takes the ID from the path, then the body, then the query.
func recordID(c *fiber.Ctx, in map[string]any) string {
	if id := c.Params("id"); id != "" {
		return id
	}
	if id, ok := in["id"].(string); ok && id != "" {
		return id
	}
	return c.Query("id")
}

func (s *Server) listEntity(c *fiber.Ctx) error {
	e, err := topLevel(c)
	if err != nil {
		return err
	}
	rows, err := s.svc.List(c.UserContext(), e, listOptions(c))
	if err != nil {
		return err
	}
	c.Set(fiber.HeaderCacheControl, cacheList)
	return c.JSON(rows)
}

func (s *Server) getEntity(c *fiber.Ctx) error {
	e, err := topLevel(c)
	if err != nil {
		return err
	}
	item, err := s.svc.Get(c.UserContext(), e, c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"item": item})
}

func (s *Server) createEntity(c *fiber.Ctx) error {
	e, err := topLevel(c)
	if err != nil {
		return err
	}
	in, err := payload(c)
	if err != nil {
		return err
	}
	item, err := s.svc.Create(c.UserContext(), e, in)
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"item": item})
}

func (s *Server) updateEntity(c *fiber.Ctx) error {
	e, err := topLevel(c)
	if err != nil {
		return err
	}
	in, err := payload(c)
	if err != nil {
		return err
	}
	id := recordID(c, in)
	if id == "" {
		return errMissingID
	}
	item, err := s.svc.Update(c.UserContext(), e, id, in)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"id": item.ID(), "item": item})
}

func (s *Server) archiveEntity(c *fiber.Ctx) error {
	e, err := topLevel(c)
	if err != nil {
		return err
	}
	in, _ := payload(c)
	id := recordID(c, in)
	if id == "" {
		return errMissingID
	}
	if err := s.svc.Archive(c.UserContext(), e, id); err != nil {
		return err
	}
	return c.JSON(fiber.Map{"ok": true})
}

// studyRequest extracts the target collection, from the body or the query,
// and the remaining fields.
func studyRequest(c *fiber.Ctx) (core.EntityName, map[string]any, error) {
	in, err := payload(c)
	if err != nil {
		return "", nil, err
	}
	name, _ := in["collection"].(string)
	if name == "" {
		name = c.Query("collection")
	}
	delete(in, "collection")
	e := core.EntityName(name)
	if !e.IsStudy() {
		return "", nil, errInvalidCollection
	}
	return e, in, nil
}

func (s *Server) listStudies(c *fiber.Ctx) error {
	studies, err := s.svc.ListStudies(c.UserContext(), listOptions(c))
	if err != nil {
		return err
	}
	if s.svc.Offline() {
		c.Set(fiber.HeaderCacheControl, cacheNever)
	} else {
		c.Set(fiber.HeaderCacheControl, cacheList)
	}
	return c.JSON(studies)
}

func (s *Server) createStudy(c *fiber.Ctx) error {
	if s.svc.Offline() {
		return brain.ErrOffline
	}
	e, in, err := studyRequest(c)
	if err != nil {
		return err
	}
	item, err := s.svc.Create(c.UserContext(), e, in)
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"item": item})
}

func (s *Server) updateStudy(c *fiber.Ctx) error {
	if s.svc.Offline() {
		return brain.ErrOffline
	}
	e, in, err := studyRequest(c)
	if err != nil {
		return err
	}
	id := recordID(c, in)
	if id == "" {
		return errMissingID
	}
	item, err := s.svc.Update(c.UserContext(), e, id, in)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"item": item})
}

func (s *Server) archiveStudy(c *fiber.Ctx) error {
	if s.svc.Offline() {
		return brain.ErrOffline
	}
	e, in, err := studyRequest(c)
	if err != nil {
		return err
	}
	id := recordID(c, in)
	if id == "" {
		return errMissingID
	}
	if err := s.svc.Archive(c.UserContext(), e, id); err != nil {
		return err
	}
	return c.JSON(fiber.Map{"ok": true})
}

func (s *Server) getMapping(c *fiber.Ctx) error {
	m, err := s.svc.Mapping(c.UserContext())
	if err != nil {
		return err
	}
	c.Set(fiber.HeaderCacheControl, cacheNone)
	return c.JSON(m)
}

func (s *Server) putMapping(c *fiber.Ctx) error {
	m := core.NewMapping()
	if err := json.Unmarshal(c.Body(), m); err != nil {
		return errInvalidJSON
	}
	if err := s.svc.SaveMapping(c.UserContext(), m); err != nil {
		s.logger.Error("mapping not persisted", "error", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "persist_failed"})
	}
	return c.JSON(fiber.Map{"ok": true})
}

func (s *Server) discover(c *fiber.Ctx) error {
	tables, err := s.svc.Discover(c.UserContext(), c.Query("q"))
	if err != nil {
		return err
	}
	if tables == nil {
		tables = []core.TableInfo{}
	}
	return c.JSON(fiber.Map{"databases": tables})
}

func (s *Server) state(c *fiber.Ctx) error {
	return c.JSON(s.svc.State())
}

// Request errors raised by the handlers themselves.
var (
	errInvalidJSON       = errors.New("invalid_json")
	errMissingID         = errors.New("missing_id")
	errInvalidCollection = errors.New("invalid_collection")
)
