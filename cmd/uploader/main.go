// Command uploader sends one employee photo through the direct-to-storage
// upload sequence and prints each step.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/staffphoto/service/internal/uploader"
)

func main() {
	var (
		apiURL     = flag.String("api", "http://localhost:8080", "service base URL")
		file       = flag.String("file", "", "photo to upload")
		employeeID = flag.String("employee-id", "", "employee number")
		name       = flag.String("name", "", "employee name (optional)")
		phone      = flag.String("phone", "", "phone number (optional)")
		department = flag.String("department", "", "department")
		timeout    = flag.Duration("timeout", 2*time.Minute, "overall timeout")
	)
	flag.Parse()

	if *file == "" {
		log.Fatal("-file is required")
	}

	f, err := os.Open(*file)
	if err != nil {
		log.Fatalf("open photo: %v", err)
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		log.Fatalf("stat photo: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	ctx, cancel := context.WithTimeout(ctx, *timeout)
	defer cancel()

	client := uploader.New(*apiURL, nil)
	client.OnState = func(s uploader.State) {
		log.Printf("[uploader] %s", s)
	}
	lastPct := -1
	client.OnProgress = func(pct int) {
		if pct/10 != lastPct/10 {
			log.Printf("[uploader] %d%%", pct)
		}
		lastPct = pct
	}

	res, err := client.Upload(ctx, uploader.Form{
		EmployeeID: *employeeID,
		Name:       *name,
		Phone:      *phone,
		Department: *department,
		Filename:   filepath.Base(*file),
		Size:       info.Size(),
		File:       f,
	})
	if err != nil {
		log.Fatalf("upload failed: %v", err)
	}

	fmt.Printf("key: %s\nurl: %s\n", res.Key, res.URL)
}
