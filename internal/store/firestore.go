package store

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"cloud.google.com/go/firestore"
	"google.golang.org/api/iterator"
	"google.golang.org/api/option"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// Firestore collection names, matching the layout used by the hosted service.
const (
	collMemoryProfiles = "MemoryProfiles"
	collChatMessages   = "ChatMessages"
)

// chatLogDoc mirrors a ChatMessages document: a single messages array.
type chatLogDoc struct {
	Messages []Turn `firestore:"messages"`
}

type firestoreStore struct {
	client *firestore.Client
	logger *slog.Logger
}

// NewFirestore creates a Store backed by a hosted Firestore database.
// credentialsFile may be empty, in which case application default
// credentials are used.
func NewFirestore(ctx context.Context, projectID, credentialsFile string, logger *slog.Logger) (Store, error) {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	if projectID == "" {
		return nil, fmt.Errorf("firestore project id is required")
	}

	var opts []option.ClientOption
	if credentialsFile != "" {
		opts = append(opts, option.WithCredentialsFile(credentialsFile))
	}

	client, err := firestore.NewClient(ctx, projectID, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create firestore client: %w", err)
	}

	logger.Info("Firestore store initialized", "project_id", projectID)
	return &firestoreStore{
		client: client,
		logger: logger.With("component", "store", "backend", "firestore"),
	}, nil
}

// Ping issues a minimal read against the profiles collection.
func (s *firestoreStore) Ping(ctx context.Context) error {
	iter := s.client.Collection(collMemoryProfiles).Limit(1).Documents(ctx)
	defer iter.Stop()

	if _, err := iter.Next(); err != nil && err != iterator.Done {
		return fmt.Errorf("firestore ping failed: %w", err)
	}
	return nil
}

func (s *firestoreStore) SaveProfile(ctx context.Context, profileID string, profile *Profile) error {
	if profile == nil {
		return fmt.Errorf("cannot save nil profile")
	}

	if _, err := s.client.Collection(collMemoryProfiles).Doc(profileID).Set(ctx, profile); err != nil {
		s.logger.ErrorContext(ctx, "Error saving profile", "profile_id", profileID, "error", err)
		return fmt.Errorf("failed to save profile %q: %w", profileID, err)
	}

	s.logger.DebugContext(ctx, "Profile saved", "profile_id", profileID, "name", profile.Name)
	return nil
}

func (s *firestoreStore) GetProfile(ctx context.Context, profileID string) (*Profile, error) {
	snap, err := s.client.Collection(collMemoryProfiles).Doc(profileID).Get(ctx)
	if status.Code(err) == codes.NotFound {
		s.logger.DebugContext(ctx, "Profile not found", "profile_id", profileID)
		return nil, ErrProfileNotFound
	}
	if err != nil {
		s.logger.ErrorContext(ctx, "Error getting profile", "profile_id", profileID, "error", err)
		return nil, fmt.Errorf("failed to get profile %q: %w", profileID, err)
	}

	var profile Profile
	if err := snap.DataTo(&profile); err != nil {
		s.logger.ErrorContext(ctx, "Error decoding profile document", "profile_id", profileID, "error", err)
		return nil, fmt.Errorf("failed to decode profile %q: %w", profileID, err)
	}
	return &profile, nil
}

// ListProfiles performs a full collection scan; the expected corpus is small.
func (s *firestoreStore) ListProfiles(ctx context.Context) ([]ProfileSummary, error) {
	iter := s.client.Collection(collMemoryProfiles).Documents(ctx)
	defer iter.Stop()

	summaries := []ProfileSummary{}
	for {
		snap, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			s.logger.ErrorContext(ctx, "Error listing profiles", "error", err)
			return nil, fmt.Errorf("failed to list profiles: %w", err)
		}

		var profile Profile
		if err := snap.DataTo(&profile); err != nil {
			s.logger.WarnContext(ctx, "Skipping undecodable profile document", "profile_id", snap.Ref.ID, "error", err)
			continue
		}
		summaries = append(summaries, ProfileSummary{ProfileID: snap.Ref.ID, Name: profile.Name})
	}

	s.logger.DebugContext(ctx, "Listed profiles", "count", len(summaries))
	return summaries, nil
}

// AppendTurn uses set-with-merge plus ArrayUnion so concurrent appends to the
// same chat log cannot clobber each other's entries. Ordering across
// concurrent appends follows ArrayUnion semantics and is not deterministic.
func (s *firestoreStore) AppendTurn(ctx context.Context, profileID string, turn Turn) error {
	ref := s.client.Collection(collChatMessages).Doc(profileID)
	_, err := ref.Set(ctx, map[string]any{
		"messages": firestore.ArrayUnion(turn),
	}, firestore.MergeAll)
	if err != nil {
		s.logger.ErrorContext(ctx, "Error appending chat turn", "profile_id", profileID, "role", turn.Role, "error", err)
		return fmt.Errorf("failed to append turn for %q: %w", profileID, err)
	}

	s.logger.DebugContext(ctx, "Chat turn appended", "profile_id", profileID, "role", turn.Role)
	return nil
}

func (s *firestoreStore) GetHistory(ctx context.Context, profileID string) ([]Turn, error) {
	snap, err := s.client.Collection(collChatMessages).Doc(profileID).Get(ctx)
	if status.Code(err) == codes.NotFound {
		// First-turn case: no chat log document yet.
		return []Turn{}, nil
	}
	if err != nil {
		s.logger.ErrorContext(ctx, "Error getting chat history", "profile_id", profileID, "error", err)
		return nil, fmt.Errorf("failed to get chat history for %q: %w", profileID, err)
	}

	var doc chatLogDoc
	if err := snap.DataTo(&doc); err != nil {
		s.logger.ErrorContext(ctx, "Error decoding chat log document", "profile_id", profileID, "error", err)
		return nil, fmt.Errorf("failed to decode chat history for %q: %w", profileID, err)
	}
	if doc.Messages == nil {
		doc.Messages = []Turn{}
	}
	return doc.Messages, nil
}

// RunMaintenance is a no-op: the hosted database maintains itself.
func (s *firestoreStore) RunMaintenance(_ context.Context) error {
	return nil
}

func (s *firestoreStore) Close() error {
	return s.client.Close()
}
