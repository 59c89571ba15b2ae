package main

import (
	"bytes"
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"regexp"
	"runtime"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/disintegration/imaging"
	"github.com/fsnotify/fsnotify"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"shopbe/models"
)

// photosync scans a local drop directory for product photos named
// product-<id>-<anything>.<ext>, uploads web-sized copies to S3 and links a
// ProductPhoto row to the product. Optional watch mode keeps it running.

var dropNameRE = regexp.MustCompile(`^product-(\d+)-.+$`)

// Global DB handle for helper funcs
var db *gorm.DB

var verbose bool

type uploader struct {
	client *s3.Client
	bucket string
	region string
}

func main() {
	dirFlag := flag.String("dir", "public/products", "directory to scan for product photos")
	watch := flag.Bool("watch", false, "Watch directory for new files")
	workers := flag.Int("workers", 0, "Worker pool size (default NumCPU)")
	dryRun := flag.Bool("dry-run", false, "List matching files without uploading or touching the DB")
	flag.BoolVar(&verbose, "verbose", false, "Verbose per-file logging")
	flag.Parse()

	files := listPhotoFiles(*dirFlag)
	if *dryRun {
		log.Printf("Dry-run: %d candidate files in %s", len(files), *dirFlag)
		for _, f := range files {
			fmt.Println(f)
		}
		return
	}

	db = mustInitDBFromEnv()
	up := mustInitUploaderFromEnv()

	log.Printf("Scanning %d files (workers=%d)", len(files), effectiveWorkers(*workers))
	runWorkerPool(*dirFlag, up, files, effectiveWorkers(*workers))

	if *watch {
		if err := watchDirectory(*dirFlag, up, effectiveWorkers(*workers)); err != nil {
			log.Fatalf("watch failed: %v", err)
		}
	}
}

func mustInitDBFromEnv() *gorm.DB {
	dsn := os.Getenv("DB_DSN")
	if dsn == "" {
		log.Fatalf("DB_DSN must be set in environment to run this tool")
	}
	gdb, err := gorm.Open(postgres.Open(dsn), &gorm.Config{})
	if err != nil {
		log.Fatalf("failed to connect to database: %v", err)
	}
	return gdb
}

// local uploader (cannot rely on the server binary's photo store)
func mustInitUploaderFromEnv() *uploader {
	bucket := os.Getenv("AWS_BUCKET_NAME")
	if bucket == "" {
		log.Fatalf("AWS_BUCKET_NAME must be set in environment to run this tool")
	}
	region := os.Getenv("AWS_REGION")
	cfg, err := awsconfig.LoadDefaultConfig(context.Background(), awsconfig.WithRegion(region))
	if err != nil {
		log.Fatalf("failed to load AWS config: %v", err)
	}
	return &uploader{client: s3.NewFromConfig(cfg), bucket: bucket, region: region}
}

func effectiveWorkers(w int) int {
	if w <= 0 {
		return runtime.NumCPU()
	}
	return w
}

func logV(format string, args ...any) {
	if verbose {
		log.Printf(format, args...)
	}
}

func listPhotoFiles(dir string) []string {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil
	}
	var out []string
	for _, e := range entries {
		if e.IsDir() || !isCandidate(e.Name()) {
			continue
		}
		out = append(out, e.Name())
	}
	sort.Strings(out)
	return out
}

func isCandidate(name string) bool {
	if !dropNameRE.MatchString(strings.TrimSuffix(name, filepath.Ext(name))) {
		return false
	}
	switch strings.ToLower(filepath.Ext(name)) {
	case ".png", ".jpg", ".jpeg", ".webp":
		return true
	}
	return false
}

// worker pool orchestrator
func runWorkerPool(dir string, up *uploader, initial []string, workers int, extraCh ...<-chan string) {
	fileCh := make(chan string, 1024)
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for name := range fileCh {
				processSingleFile(dir, name, up)
			}
		}()
	}
	go func() {
		for _, f := range initial {
			fileCh <- f
		}
		for _, ch := range extraCh {
			go func(c <-chan string) {
				for n := range c {
					fileCh <- n
				}
			}(ch)
		}
		// scan-only mode closes the channel when the listing is fed
		if len(extraCh) == 0 {
			close(fileCh)
		}
	}()
	if len(extraCh) == 0 {
		wg.Wait()
	}
}

// processSingleFile uploads one drop file and links it to its product.
// Idempotent: a file already linked (matched by object key suffix) is skipped.
func processSingleFile(dir, name string, up *uploader) {
	base := strings.TrimSuffix(name, filepath.Ext(name))
	m := dropNameRE.FindStringSubmatch(base)
	if m == nil {
		return
	}
	productID, err := strconv.ParseUint(m[1], 10, 64)
	if err != nil || productID == 0 {
		return
	}

	var product models.Product
	if err := db.First(&product, productID).Error; err != nil {
		logV("skip %s: product %d not found", name, productID)
		return
	}
	var existing models.ProductPhoto
	if err := db.Where("product_id = ? AND key LIKE ?", product.ID, "%/"+name).First(&existing).Error; err == nil {
		logV("skip %s: already linked (photo id=%d)", name, existing.ID)
		return
	}

	body, err := renderWebSize(filepath.Join(dir, name))
	if err != nil {
		log.Printf("skip %s: %v", name, err)
		return
	}
	key := "products/drop/" + name
	_, err = up.client.PutObject(context.Background(), &s3.PutObjectInput{
		Bucket:      aws.String(up.bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(body),
		ContentType: aws.String("image/jpeg"),
	})
	if err != nil {
		log.Printf("upload failed for %s: %v", name, err)
		return
	}
	photo := models.ProductPhoto{
		ProductID:   product.ID,
		URL:         fmt.Sprintf("https://%s.s3.%s.amazonaws.com/%s", up.bucket, up.region, key),
		Key:         key,
		ContentType: "image/jpeg",
	}
	if err := db.Create(&photo).Error; err != nil {
		log.Printf("failed to record photo for %s: %v", name, err)
		return
	}
	log.Printf("linked %s -> product %d (photo id=%d)", name, product.ID, photo.ID)
}

// renderWebSize caps the long edge at 1600px and re-encodes as JPEG.
func renderWebSize(path string) ([]byte, error) {
	img, err := imaging.Open(path, imaging.AutoOrientation(true))
	if err != nil {
		return nil, err
	}
	b := img.Bounds()
	if b.Dx() > 1600 || b.Dy() > 1600 {
		img = imaging.Fit(img, 1600, 1600, imaging.Lanczos)
	}
	var buf bytes.Buffer
	if err := imaging.Encode(&buf, img, imaging.JPEG, imaging.JPEGQuality(85)); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func watchDirectory(dir string, up *uploader, workers int) error {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer w.Close()
	if err := w.Add(dir); err != nil {
		return err
	}
	log.Printf("Watching %s (debounced) ...", dir)

	fileCh := make(chan string, 256)
	go func() {
		// simple debounce map of pending files
		pending := map[string]time.Time{}
		ticker := time.NewTicker(250 * time.Millisecond)
		defer ticker.Stop()
		for {
			select {
			case ev, ok := <-w.Events:
				if !ok {
					close(fileCh)
					return
				}
				if ev.Op&fsnotify.Create == fsnotify.Create {
					name := filepath.Base(ev.Name)
					if !isCandidate(name) {
						continue
					}
					pending[name] = time.Now()
				}
			case <-ticker.C:
				now := time.Now()
				for name, t := range pending {
					if now.Sub(t) > 300*time.Millisecond { // stable
						fileCh <- name
						delete(pending, name)
					}
				}
			case err, ok := <-w.Errors:
				if !ok {
					close(fileCh)
					return
				}
				log.Printf("watch error: %v", err)
			}
		}
	}()

	// Use the worker pool for watch events too
	go runWorkerPool(dir, up, nil, workers, fileCh)
	// block forever (Ctrl+C to exit)
	select {}
}
