package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"fitcal/coach-planner/internal/domain"
)

func TestAddClientByEmail(t *testing.T) {
	trainerID := primitive.NewObjectID()
	clientID := primitive.NewObjectID()
	users := &fakeUserRepo{users: map[primitive.ObjectID]domain.User{
		trainerID: {ID: trainerID, Role: domain.RoleTrainer},
		clientID:  {ID: clientID, Role: domain.RoleClient, Email: "pat@example.com"},
	}}
	svc := NewRosterService(users)

	client, err := svc.AddClientByEmail(context.Background(), trainerID, "pat@example.com")
	require.NoError(t, err)
	require.NotNil(t, client.TrainerID)
	require.Equal(t, trainerID, *client.TrainerID)

	// Both sides of the relationship are written.
	require.Contains(t, users.users[trainerID].ClientIDs, clientID)
	require.Equal(t, trainerID, *users.users[clientID].TrainerID)
}

func TestAddClientByEmail_ReAddIsNoOp(t *testing.T) {
	trainerID := primitive.NewObjectID()
	clientID := primitive.NewObjectID()
	users := &fakeUserRepo{users: map[primitive.ObjectID]domain.User{
		trainerID: {ID: trainerID, Role: domain.RoleTrainer, ClientIDs: []primitive.ObjectID{clientID}},
		clientID:  {ID: clientID, Role: domain.RoleClient, Email: "pat@example.com", TrainerID: &trainerID},
	}}
	svc := NewRosterService(users)

	client, err := svc.AddClientByEmail(context.Background(), trainerID, "pat@example.com")
	require.NoError(t, err)
	require.Equal(t, clientID, client.ID)
	require.Len(t, users.users[trainerID].ClientIDs, 1, "roster must not grow on re-add")
}

func TestAddClientByEmail_AlreadyAssignedElsewhere(t *testing.T) {
	trainerID := primitive.NewObjectID()
	otherTrainerID := primitive.NewObjectID()
	clientID := primitive.NewObjectID()
	users := &fakeUserRepo{users: map[primitive.ObjectID]domain.User{
		trainerID: {ID: trainerID, Role: domain.RoleTrainer},
		clientID:  {ID: clientID, Role: domain.RoleClient, Email: "pat@example.com", TrainerID: &otherTrainerID},
	}}
	svc := NewRosterService(users)

	_, err := svc.AddClientByEmail(context.Background(), trainerID, "pat@example.com")
	require.ErrorIs(t, err, ErrClientAlreadyAssigned)
}

func TestAddClientByEmail_RejectsTrainerAccounts(t *testing.T) {
	trainerID := primitive.NewObjectID()
	otherID := primitive.NewObjectID()
	users := &fakeUserRepo{users: map[primitive.ObjectID]domain.User{
		trainerID: {ID: trainerID, Role: domain.RoleTrainer},
		otherID:   {ID: otherID, Role: domain.RoleTrainer, Email: "coach@example.com"},
	}}
	svc := NewRosterService(users)

	_, err := svc.AddClientByEmail(context.Background(), trainerID, "coach@example.com")
	require.ErrorIs(t, err, ErrClientNotRole)
}

func TestAddClientByEmail_UnknownEmail(t *testing.T) {
	trainerID := primitive.NewObjectID()
	users := &fakeUserRepo{users: map[primitive.ObjectID]domain.User{
		trainerID: {ID: trainerID, Role: domain.RoleTrainer},
	}}
	svc := NewRosterService(users)

	_, err := svc.AddClientByEmail(context.Background(), trainerID, "nobody@example.com")
	require.ErrorIs(t, err, ErrClientNotFound)
}

func TestGetManagedClients_ClearsHashes(t *testing.T) {
	trainerID := primitive.NewObjectID()
	clientID := primitive.NewObjectID()
	users := &fakeUserRepo{users: map[primitive.ObjectID]domain.User{
		trainerID: {ID: trainerID, Role: domain.RoleTrainer, ClientIDs: []primitive.ObjectID{clientID}},
		clientID:  {ID: clientID, Role: domain.RoleClient, PasswordHash: "secret-hash", TrainerID: &trainerID},
	}}
	svc := NewRosterService(users)

	clients, err := svc.GetManagedClients(context.Background(), trainerID)
	require.NoError(t, err)
	require.Len(t, clients, 1)
	require.Empty(t, clients[0].PasswordHash)
}
