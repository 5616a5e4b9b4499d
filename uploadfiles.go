/*************************************************************************
 * Copyright 2026 EdgeFirst AI. All rights reserved.
 *
 * This software may be modified and distributed under the terms of the
 * BSD 2-clause license. See the LICENSE file for details.
 **************************************************************************/

package client

import (
	"context"
	"io"

	"github.com/EdgeFirstAI/client-sub000/ids"
)

// UploadFile is one named file attached to a trainer/validate session
// upload. Name is the server-side path the content is stored under (e.g.
// "checkpoints/epoch-12.pt", "artifacts/report.json").
type UploadFile struct {
	Name    string
	Content io.Reader
}

func toMultipartFiles(files []UploadFile) []multipartFile {
	out := make([]multipartFile, len(files))
	for i, f := range files {
		out[i] = multipartFile{Name: f.Name, Content: f.Content}
	}
	return out
}

// UploadTrainerFiles attaches files to a training session via
// trainer.upload.files, the §4.C post_multipart entry point rather than
// the presigned-URL multipart flow (§4.F.2): the server stores each file
// directly from the request body.
func (s *Session) UploadTrainerFiles(ctx context.Context, sessionID ids.TrainingSessionID, files []UploadFile) error {
	params := map[string]any{"session_id": sessionID}
	_, err := s.transport.postMultipart(ctx, s.URL(), METHOD_TRAINER_UPLOAD_FILES, params, toMultipartFiles(files), s.authHeader())
	return err
}

// UploadValidateFiles attaches files to a validation session via
// validate.upload.files, the same post_multipart protocol as
// UploadTrainerFiles.
func (s *Session) UploadValidateFiles(ctx context.Context, sessionID ids.ValidationSessionID, files []UploadFile) error {
	params := map[string]any{"session_id": sessionID}
	_, err := s.transport.postMultipart(ctx, s.URL(), METHOD_VALIDATE_UPLOAD_FILES, params, toMultipartFiles(files), s.authHeader())
	return err
}
