package marketplace

import (
	"context"
	"fmt"
	"time"

	"github.com/251027-Java/P3-Group2/trade-service/internal/core/ports"
)

type userResponse struct {
	UserID   int64  `json:"userId"`
	Username string `json:"username"`
	Email    string `json:"email"`
	Role     string `json:"role"`
}

type userClient struct {
	*client
}

// NewUserClient returns the accessor for the user service reachable at the
// given base url.
func NewUserClient(
	baseURL string, timeout time.Duration,
) (ports.UserService, error) {
	c, err := newClient("user-service", baseURL, timeout)
	if err != nil {
		return nil, err
	}
	return &userClient{c}, nil
}

func (c *userClient) GetUser(ctx context.Context, id int64) (*ports.User, error) {
	var resp userResponse
	if err := c.getJSON(
		ctx, fmt.Sprintf("/api/users/%d", id), ports.ErrUserNotFound, &resp,
	); err != nil {
		return nil, err
	}

	return &ports.User{
		ID:       resp.UserID,
		Username: resp.Username,
		Email:    resp.Email,
		Role:     resp.Role,
	}, nil
}
