package services

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/playverse/playverse-backend/models"
)

type videoFixture struct {
	videos   *fakeVideoRepo
	uploader *fakeUploader
	svc      VideoService
}

func newVideoFixture(t *testing.T) *videoFixture {
	t.Helper()
	f := &videoFixture{
		videos:   newFakeVideoRepo(),
		uploader: newFakeUploader(),
	}
	f.svc = NewVideoService(nil, f.videos, f.uploader, nil)
	return f
}

func TestVideoPublishValidation(t *testing.T) {
	f := newVideoFixture(t)
	ctx := context.Background()

	cases := []struct {
		name  string
		input PublishVideoInput
	}{
		{"no title", PublishVideoInput{File: strings.NewReader("x"), FileContentType: "video/mp4"}},
		{"no file", PublishVideoInput{Title: "clip"}},
		{"negative duration", PublishVideoInput{Title: "clip", Duration: -1, File: strings.NewReader("x"), FileContentType: "video/mp4"}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := f.svc.Publish(ctx, 1, tc.input); !errors.Is(err, ErrValidationFailed) {
				t.Fatalf("got %v, want ErrValidationFailed", err)
			}
		})
	}
}

func TestVideoPublishCreatesUnpublished(t *testing.T) {
	f := newVideoFixture(t)

	video, err := f.svc.Publish(context.Background(), 1, PublishVideoInput{
		Title:           "highlight reel",
		Duration:        95,
		File:            strings.NewReader("payload"),
		FileContentType: "video/mp4",
	})
	if err != nil {
		t.Fatalf("Publish: %v", err)
	}
	if video.IsPublished {
		t.Fatal("freshly uploaded video must start unpublished")
	}
	if video.Duration != 95 {
		t.Fatalf("duration = %d, want 95", video.Duration)
	}
	if !strings.HasPrefix(video.VideoKey, "videos/") || !strings.HasSuffix(video.VideoKey, ".mp4") {
		t.Fatalf("unexpected video key %q", video.VideoKey)
	}
	if _, ok := f.uploader.objects[video.VideoKey]; !ok {
		t.Fatal("video object missing from storage")
	}
}

func TestVideoTogglePublished(t *testing.T) {
	f := newVideoFixture(t)
	video := f.videos.addVideo(models.Video{OwnerID: 1, Title: "clip"})
	ctx := context.Background()

	// Только владелец может переключать публикацию.
	if _, err := f.svc.TogglePublished(ctx, video.ID, 2); !errors.Is(err, ErrForbiddenOperation) {
		t.Fatalf("non-owner: got %v, want ErrForbiddenOperation", err)
	}

	published, err := f.svc.TogglePublished(ctx, video.ID, 1)
	if err != nil {
		t.Fatalf("TogglePublished: %v", err)
	}
	if !published {
		t.Fatal("first toggle should publish")
	}

	published, err = f.svc.TogglePublished(ctx, video.ID, 1)
	if err != nil {
		t.Fatalf("TogglePublished: %v", err)
	}
	if published {
		t.Fatal("second toggle should unpublish")
	}
}

func TestVideoUpdateRequiresBothFields(t *testing.T) {
	f := newVideoFixture(t)
	video := f.videos.addVideo(models.Video{OwnerID: 1, Title: "clip"})
	ctx := context.Background()

	if _, err := f.svc.Update(ctx, video.ID, 1, UpdateVideoInput{Title: "only"}); !errors.Is(err, ErrTitleAndDescriptionNeeded) {
		t.Fatalf("got %v, want ErrTitleAndDescriptionNeeded", err)
	}

	updated, err := f.svc.Update(ctx, video.ID, 1, UpdateVideoInput{Title: "new title", Description: "new description"})
	if err != nil {
		t.Fatalf("Update: %v", err)
	}
	if updated.Title != "new title" || updated.Description != "new description" {
		t.Fatalf("unexpected video: %+v", updated)
	}
}

func TestVideoGetDetailsCountsView(t *testing.T) {
	f := newVideoFixture(t)
	video := f.videos.addVideo(models.Video{OwnerID: 1, Title: "clip", IsPublished: true})

	details, err := f.svc.GetDetails(context.Background(), video.ID, 0)
	if err != nil {
		t.Fatalf("GetDetails: %v", err)
	}
	if details.Views != 1 {
		t.Fatalf("views = %d, want 1 after the first watch", details.Views)
	}
}
