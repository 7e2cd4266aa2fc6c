package chat

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"taskpilot/internal/common/models"
)

func TestOnlinePayloadCarriesProfile(t *testing.T) {
	u := &models.User{
		ID:       primitive.NewObjectID(),
		Name:     "Dana",
		Email:    "dana@example.com",
		Password: "hash",
		Role:     models.RoleManager,
	}
	client := &Client{userID: u.ID.Hex(), user: u}

	payload := onlinePayload(client)
	assert.Equal(t, u.ID.Hex(), payload["userId"])
	assert.Equal(t, u, payload["user"])

	raw, err := json.Marshal(payload)
	require.NoError(t, err)

	var decoded struct {
		UserID string `json:"userId"`
		User   struct {
			Name string `json:"name"`
			Role string `json:"role"`
		} `json:"user"`
	}
	require.NoError(t, json.Unmarshal(raw, &decoded))
	assert.Equal(t, u.ID.Hex(), decoded.UserID)
	assert.Equal(t, "Dana", decoded.User.Name)
	assert.Equal(t, "manager", decoded.User.Role)
	assert.NotContains(t, string(raw), "hash", "password hash must never go on the wire")
}
