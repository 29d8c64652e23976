package handlers

import (
	"strconv"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"github.com/artem13815/jobboard/pkg/apperr"
)

const (
	defaultLimit = 20
	maxLimit     = 200
)

func parseLimitOffset(c *fiber.Ctx) (limit, offset int) {
	limit = defaultLimit
	offset = 0
	if v := strings.TrimSpace(c.Query("limit")); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 && n <= maxLimit {
			limit = n
		}
	}
	if v := strings.TrimSpace(c.Query("offset")); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n >= 0 {
			offset = n
		}
	}
	return limit, offset
}

// queryInt64 returns nil for an absent parameter.
func queryInt64(c *fiber.Ctx, name string) (*int64, error) {
	v := strings.TrimSpace(c.Query(name))
	if v == "" {
		return nil, nil
	}
	n, err := strconv.ParseInt(v, 10, 64)
	if err != nil {
		return nil, apperr.Validation(name + " must be an integer")
	}
	return &n, nil
}

func queryUUID(c *fiber.Ctx, name string) (*uuid.UUID, error) {
	v := strings.TrimSpace(c.Query(name))
	if v == "" {
		return nil, nil
	}
	id, err := uuid.Parse(v)
	if err != nil {
		return nil, apperr.Validation("invalid " + name)
	}
	return &id, nil
}

// queryList splits a comma separated parameter, also accepting repeats.
func queryList(c *fiber.Ctx, name string) []string {
	var out []string
	for _, raw := range c.Context().QueryArgs().PeekMulti(name) {
		for _, part := range strings.Split(string(raw), ",") {
			if p := strings.TrimSpace(part); p != "" {
				out = append(out, p)
			}
		}
	}
	return out
}
