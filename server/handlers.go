package server

import (
	"io"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/pkg/errors"

	"github.com/mrsingh-rishi/voice-instructor/audio"
	"github.com/mrsingh-rishi/voice-instructor/model"
	"github.com/mrsingh-rishi/voice-instructor/types"
)

// uploadField is the multipart field carrying the raw PCM buffer.
const uploadField = "file"

func (s *Server) upload(withInstruction bool) fiber.Handler {
	return func(c *fiber.Ctx) error {
		pcm, err := s.readUpload(c)
		if err != nil {
			return err
		}

		res, err := s.pipeline.Process(c.UserContext(), pcm, withInstruction)
		if err != nil {
			return err
		}

		if !withInstruction {
			return sendTranscription(c, res.Transcription)
		}
		return c.JSON(types.InstructionResponse{
			Transcript:  res.Transcript,
			Instruction: res.Instruction,
		})
	}
}

// sendTranscription answers with the upstream body as received, falling
// back to the decoded result when no body was captured.
func sendTranscription(c *fiber.Ctx, t *model.Transcription) error {
	if len(t.Raw) == 0 {
		return c.JSON(t.Result)
	}
	c.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)
	return c.Send(t.Raw)
}

func (s *Server) convert(c *fiber.Ctx) error {
	pcm, err := s.readUpload(c)
	if err != nil {
		return err
	}

	wav, err := audio.FrameDefault(pcm)
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid audio upload")
	}

	c.Set(fiber.HeaderContentType, "audio/wav")
	c.Set(fiber.HeaderContentDisposition, `attachment; filename="audio.wav"`)
	return c.Send(wav)
}

func (s *Server) health(c *fiber.Ctx) error {
	states := s.pipeline.BreakerStates()
	s.metrics.SetBreakerStates(states)

	status := "ok"
	for _, state := range states {
		if state != "closed" {
			status = "degraded"
		}
	}

	return c.JSON(types.HealthResponse{
		Status:   status,
		Service:  ServiceName,
		Version:  ServiceVersion,
		Uptime:   time.Since(s.started).Round(time.Second).String(),
		Breakers: states,
	})
}

// readUpload returns the bytes of the first file in the upload field.
func (s *Server) readUpload(c *fiber.Ctx) (model.PCM, error) {
	fh, err := c.FormFile(uploadField)
	if err != nil {
		return nil, fiber.NewError(fiber.StatusBadRequest, "missing upload field \"file\"")
	}

	f, err := fh.Open()
	if err != nil {
		return nil, errors.Wrap(err, "open upload")
	}
	defer f.Close()

	pcm, err := io.ReadAll(f)
	if err != nil {
		return nil, errors.Wrap(err, "read upload")
	}

	s.metrics.RecordUpload(len(pcm))
	return pcm, nil
}
