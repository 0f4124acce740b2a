package report

import (
	"bytes"
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/signintech/gopdf"
	"go.uber.org/zap"

	"mediassist/internal/assessment"
)

type TelegramClient interface {
	SendMessage(ctx context.Context, chatID int64, text string) error
	SendDocument(ctx context.Context, chatID int64, fileData []byte, fileName string) error
}

// Archiver keeps a copy of every generated report.
type Archiver interface {
	Store(ctx context.Context, name string, data []byte) error
}

var defaultFontPaths = []string{
	"/usr/share/fonts/ttf-dejavu/DejaVuSans.ttf",
	"/usr/share/fonts/dejavu/DejaVuSans.ttf",
	"/usr/share/fonts/truetype/dejavu/DejaVuSans.ttf",
}

type Service struct {
	tgClient     TelegramClient
	doctorChatID int64
	archive      Archiver
	logger       *zap.Logger

	fontPaths []string
	render    func(a assessment.Assessment) ([]byte, error)
}

// NewService builds the report sender. archive may be nil.
func NewService(tg TelegramClient, doctorChatID int64, archive Archiver, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &Service{
		tgClient:     tg,
		doctorChatID: doctorChatID,
		archive:      archive,
		logger:       logger,
		fontPaths:    defaultFontPaths,
	}
	s.render = s.Render
	return s
}

func FileName(a assessment.Assessment) string {
	return fmt.Sprintf("avaliacao_%s.pdf", a.ID.String())
}

// SendAssessmentReport renders the assessment as PDF, archives it and
// delivers it to the doctor chat. Archive failures are logged only.
func (s *Service) SendAssessmentReport(ctx context.Context, a assessment.Assessment) error {
	s.logger.Info("generating PDF report", zap.String("assessment_id", a.ID.String()))

	data, err := s.render(a)
	if err != nil {
		return err
	}
	fileName := FileName(a)

	if s.archive != nil {
		if err := s.archive.Store(ctx, fileName, data); err != nil {
			s.logger.Error("failed to archive report", zap.String("file", fileName), zap.Error(err))
		}
	}

	if s.tgClient == nil {
		return fmt.Errorf("telegram client is not configured")
	}
	if err := s.tgClient.SendDocument(ctx, s.doctorChatID, data, fileName); err != nil {
		s.logger.Error("error sending Telegram document", zap.Int64("chat_id", s.doctorChatID), zap.Error(err))
		return err
	}
	s.logger.Info("PDF report sent", zap.String("file", fileName))

	if err := s.tgClient.SendMessage(ctx, s.doctorChatID, Summary(a)); err != nil {
		s.logger.Warn("failed to send report summary", zap.Int64("chat_id", s.doctorChatID), zap.Error(err))
	}
	return nil
}

// Summary is the short chat message that follows the PDF.
func Summary(a assessment.Assessment) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Nova avaliação de sintomas\nPaciente: %s\n", a.PatientID)
	if top, ok := a.Result().Top(); ok {
		fmt.Fprintf(&b, "Hipótese principal: %s (%.0f%%)\n", top.Name, top.Probability*100)
	} else {
		b.WriteString("Nenhuma condição identificada.\n")
	}
	fmt.Fprintf(&b, "Sintomas: %s", strings.Join(a.Symptoms, ", "))
	return b.String()
}

// Render lays out the assessment on a single A4 page.
func (s *Service) Render(a assessment.Assessment) ([]byte, error) {
	pdf := gopdf.GoPdf{}
	pdf.Start(gopdf.Config{PageSize: *gopdf.PageSizeA4})
	pdf.AddPage()

	var fontErr error
	fontLoaded := false
	for _, path := range s.fontPaths {
		if err := pdf.AddTTFFont("DejaVu", path); err == nil {
			fontLoaded = true
			break
		} else {
			fontErr = err
		}
	}
	if !fontLoaded {
		return nil, fmt.Errorf("failed to load font for PDF, ensure ttf-dejavu is installed: %w", fontErr)
	}

	if err := pdf.SetFont("DejaVu", "", 20); err != nil {
		return nil, err
	}
	pdf.Cell(nil, "Relatório de Avaliação de Sintomas")
	pdf.Br(30)

	if err := pdf.SetFont("DejaVu", "", 12); err != nil {
		return nil, err
	}
	created := a.CreatedAt
	if created.IsZero() {
		created = time.Now()
	}
	pdf.Cell(nil, fmt.Sprintf("Data: %s", created.Format("02/01/2006 15:04")))
	pdf.Br(15)
	pdf.Cell(nil, fmt.Sprintf("ID do Paciente: %s", a.PatientID))
	pdf.Br(15)
	pdf.Cell(nil, fmt.Sprintf("Fonte: %s", a.Source))
	pdf.Br(25)

	section := func(title string) error {
		if err := pdf.SetFont("DejaVu", "", 14); err != nil {
			return err
		}
		pdf.Cell(nil, title)
		pdf.Br(15)
		return pdf.SetFont("DejaVu", "", 11)
	}
	writeLines := func(text string) {
		lines, _ := pdf.SplitText(text, 500)
		for _, l := range lines {
			pdf.Cell(nil, l)
			pdf.Br(12)
		}
	}

	if err := section("Sintomas relatados:"); err != nil {
		return nil, err
	}
	for _, sym := range a.Symptoms {
		writeLines("- " + sym)
	}
	pdf.Br(10)

	if err := section("Condições possíveis:"); err != nil {
		return nil, err
	}
	if len(a.Conditions) == 0 {
		writeLines("- Nenhuma condição identificada.")
	}
	for _, c := range a.Conditions {
		writeLines(fmt.Sprintf("- %s (%.0f%%): %s", c.Name, c.Probability*100, c.Description))
		pdf.Br(5)
	}
	pdf.Br(10)

	if len(a.Recommendations) > 0 {
		if err := section("Recomendações:"); err != nil {
			return nil, err
		}
		for _, r := range a.Recommendations {
			writeLines("- " + r)
		}
	}

	pdf.SetY(800)
	if err := pdf.SetFont("DejaVu", "", 9); err != nil {
		return nil, err
	}
	pdf.Cell(nil, "Este relatório não substitui avaliação médica profissional.")

	var buf bytes.Buffer
	if _, err := pdf.WriteTo(&buf); err != nil {
		return nil, fmt.Errorf("failed to write PDF: %w", err)
	}
	return buf.Bytes(), nil
}
