package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/sahilchouksey/course-week-planner/app"
	"github.com/sahilchouksey/course-week-planner/config"
	"github.com/sahilchouksey/course-week-planner/database"
	"github.com/sahilchouksey/course-week-planner/model"
	"github.com/sahilchouksey/course-week-planner/services"
	"github.com/sahilchouksey/course-week-planner/services/digitalocean"
	"github.com/sahilchouksey/course-week-planner/utils"
)

const cliUserID = 1

// output is what weekplan prints
type output struct {
	Schedule       *model.WeekSchedule       `json:"schedule"`
	Recommendation *model.WeekRecommendation `json:"recommendation,omitempty"`
}

func main() {
	var (
		schedulePath string
		syllabusPath string
		termStart    string
		title        string
		week         int
		fromSpaces   bool
		recommend    bool
		maxPages     int
	)
	flag.StringVar(&schedulePath, "schedule", "", "schedule document (pdf or text)")
	flag.StringVar(&syllabusPath, "syllabus", "", "syllabus document (pdf or text)")
	flag.StringVar(&termStart, "term-start", "", "any date in week 1, YYYY-MM-DD (default: today)")
	flag.StringVar(&title, "title", "Course", "class title")
	flag.IntVar(&week, "week", 0, "week to plan (default: the current week)")
	flag.BoolVar(&fromSpaces, "spaces", false, "read documents from DigitalOcean Spaces object keys")
	flag.BoolVar(&recommend, "recommend", false, "also curate resources for the week")
	flag.IntVar(&maxPages, "max-pages", 40, "pdf pages to read per document")
	flag.Parse()

	if schedulePath == "" && syllabusPath == "" {
		fmt.Fprintln(os.Stderr, "at least one of -schedule or -syllabus is required")
		flag.Usage()
		os.Exit(2)
	}

	if err := run(schedulePath, syllabusPath, termStart, title, week, fromSpaces, recommend, maxPages); err != nil {
		fmt.Fprintf(os.Stderr, "weekplan: %v\n", err)
		os.Exit(1)
	}
}

func run(schedulePath, syllabusPath, termStart, title string, week int, fromSpaces, recommend bool, maxPages int) error {
	if err := config.LoadENV(); err != nil && !os.IsNotExist(err) {
		return err
	}
	getEnv, err := config.Get()
	if err != nil {
		return err
	}
	log, err := utils.NewLogger(getEnv.LOG_MODE, getEnv.LOG_LEVEL)
	if err != nil {
		return err
	}
	defer log.Sync()

	anchor := time.Now().UTC()
	if termStart != "" {
		anchor, err = time.Parse("2006-01-02", termStart)
		if err != nil {
			return fmt.Errorf("invalid -term-start %q: %w", termStart, err)
		}
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	reader, err := newDocumentReader(getEnv, fromSpaces, services.NewDocumentTextExtractor(log, maxPages))
	if err != nil {
		return err
	}

	var scheduleText, syllabusText string
	g, gctx := errgroup.WithContext(ctx)
	if schedulePath != "" {
		g.Go(func() (err error) {
			scheduleText, err = reader.read(gctx, schedulePath)
			return err
		})
	}
	if syllabusPath != "" {
		g.Go(func() (err error) {
			syllabusText, err = reader.read(gctx, syllabusPath)
			return err
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	store := database.NewMemoryStore()
	classID := store.AddClass(model.Class{
		OwnerUserID:      cliUserID,
		Title:            title,
		CurrentWeek:      1,
		CurrentWeekSetAt: &anchor,
	})
	addDocument(store, classID, model.DocumentTypeSchedule, schedulePath, scheduleText)
	addDocument(store, classID, model.DocumentTypeSyllabus, syllabusPath, syllabusText)

	schedules, recommendations, err := app.BuildWeekServices(getEnv, store, log)
	if err != nil {
		return err
	}

	var weekArg *int
	if week > 0 {
		weekArg = &week
	}

	var out output
	out.Schedule, err = schedules.GetWeekSchedule(ctx, classID, cliUserID, weekArg)
	if err != nil {
		return err
	}
	if recommend {
		out.Recommendation, err = recommendations.GetWeekRecommendation(ctx, classID, cliUserID, weekArg)
		if errors.Is(err, services.ErrModelUnavailable) {
			log.Warn("skipping recommendations, set DO_INFERENCE_API_KEY to enable them")
		} else if err != nil {
			return err
		}
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(out)
}

func addDocument(store *database.MemoryStore, classID uint, docType model.DocumentType, path, text string) {
	if text == "" {
		return
	}
	store.AddDocument(model.SourceDocument{
		ClassID:       classID,
		DocType:       docType,
		Filename:      filepath.Base(path),
		ExtractedText: &text,
		Status:        model.DocumentStatusDone,
	})
}

// documentReader loads a document from disk or Spaces and extracts its text
type documentReader struct {
	spaces    *digitalocean.SpacesClient
	extractor services.TextExtractor
}

func newDocumentReader(getEnv *config.EnviornmentVariable, fromSpaces bool, extractor services.TextExtractor) (*documentReader, error) {
	r := &documentReader{extractor: extractor}
	if !fromSpaces {
		return r, nil
	}
	spacesConfig := digitalocean.SpacesConfig{
		AccessKey: getEnv.DO_SPACES_KEY,
		SecretKey: getEnv.DO_SPACES_SECRET,
		Bucket:    getEnv.DO_SPACES_BUCKET,
		Region:    getEnv.DO_SPACES_REGION,
		Endpoint:  getEnv.DO_SPACES_ENDPOINT,
	}
	if !spacesConfig.IsConfigured() {
		return nil, errors.New("-spaces needs DO_SPACES_KEY, DO_SPACES_SECRET and DO_SPACES_BUCKET")
	}
	spaces, err := digitalocean.NewSpacesClient(spacesConfig)
	if err != nil {
		return nil, err
	}
	r.spaces = spaces
	return r, nil
}

func (r *documentReader) read(ctx context.Context, path string) (string, error) {
	var (
		content     []byte
		contentType string
		err         error
	)
	if r.spaces != nil {
		content, contentType, err = r.spaces.DownloadFile(ctx, path)
	} else {
		content, err = os.ReadFile(path)
		contentType = digitalocean.GetContentType(path)
	}
	if err != nil {
		return "", fmt.Errorf("read %s: %w", path, err)
	}

	text, err := r.extractor.ExtractText(ctx, content, contentType)
	if err != nil {
		return "", fmt.Errorf("extract %s: %w", path, err)
	}
	return text, nil
}
