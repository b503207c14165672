// Command rank scores local resume files against a job description using the
// same extractor, AI client and normalizer as the API.
//
//	go run ./cmd/rank score --jd jd.txt cv1.pdf cv2.docx
//	go run ./cmd/rank models
package main

import (
	"context"
	"os"
	"os/signal"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	err := Execute(ctx)
	stop()
	if err != nil {
		os.Exit(1)
	}
}
