package main

import (
	"bytes"
	"flag"
	"io"
	"log"
	"os"

	"github.com/k0kubun/pp/v3"

	"github.com/webmaild/webmaild/config"
	"github.com/webmaild/webmaild/model"
	"github.com/webmaild/webmaild/objectstorage"
	"github.com/webmaild/webmaild/store"
	"github.com/webmaild/webmaild/transfer"
)

var version = "dev"

// mailreceiver ingests one raw message from stdin into a mailbox: the raw
// bytes are archived to object storage, the parsed message becomes an
// email row in Inbox, and attachment bytes are stored as blobs.
func main() {
	var confPath string
	var mailbox string
	var debug bool
	var showVersion bool
	flag.BoolVar(&showVersion, "version", false, "Show version")
	flag.StringVar(&confPath, "config", "./config.yaml", "Path to the configuration file")
	flag.StringVar(&mailbox, "mailbox", "", "Destination mailbox key")
	flag.BoolVar(&debug, "debug", false, "Dump the parsed message")
	flag.Parse()

	if showVersion {
		log.Printf("Version: %s", version)
		return
	}
	if mailbox == "" {
		log.Fatal("-mailbox is required")
	}

	conf, err := config.Load(confPath)
	if err != nil {
		log.Fatalf("Error loading configuration: %v", err)
	}

	if conf.LogFile != "" {
		logFd, err := os.OpenFile(conf.LogFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
		if err != nil {
			log.Fatalf("Error opening log file: %v", err)
		}
		defer logFd.Close()
		log.SetOutput(logFd)
	}

	log.Printf("start mail ingest process pid=%d mailbox=%s", os.Getpid(), mailbox)

	raw := &bytes.Buffer{}
	if _, err := io.Copy(raw, os.Stdin); err != nil {
		log.Fatalf("Error reading message: %v", err)
	}

	blobs, err := objectstorage.New(conf.ObjectStorage)
	if err != nil {
		log.Fatalf("Error creating object storage client: %v", err)
	}

	// The mailbox must exist before anything is written to it.
	exists, err := blobs.Exists(objectstorage.ConfigDocKey(mailbox))
	if err != nil {
		log.Fatalf("Error checking mailbox: %v", err)
	}
	if !exists {
		log.Fatalf("Mailbox %s does not exist", mailbox)
	}

	rawKey := objectstorage.RawMessageKey(mailbox)
	if err := blobs.PutCompressed(rawKey, bytes.NewReader(raw.Bytes())); err != nil {
		log.Fatalf("Error archiving raw message: %v", err)
	}
	log.Printf("Raw message archived with key: %s", rawKey)

	msg, err := transfer.Parse(bytes.NewReader(raw.Bytes()))
	if err != nil {
		log.Fatalf("Error parsing message: %v", err)
	}
	if debug {
		log.Println(pp.Sprintf("parsed message: %v", msg))
	}

	dispatcher := store.NewDispatcher(conf.DataDir, conf.Auth.SessionTTL)
	mb, err := dispatcher.Resolve(mailbox)
	if err != nil {
		log.Fatalf("Error resolving mailbox store: %v", err)
	}

	fields := store.EmailFields{
		Subject:    msg.Subject,
		Sender:     msg.From,
		Recipient:  msg.To,
		Date:       msg.Date,
		Body:       msg.Body,
		References: msg.References,
	}
	var attachments []store.AttachmentInput
	for _, att := range msg.Attachments {
		attachments = append(attachments, store.AttachmentInput{
			Filename:    att.Filename,
			Mimetype:    att.Mimetype,
			Size:        int64(len(att.Data)),
			ContentID:   att.ContentID,
			Disposition: dispositionOf(att),
		})
	}

	email, err := mb.CreateEmail("inbox", fields, attachments)
	if err != nil {
		log.Fatalf("Error storing email: %v", err)
	}

	for i, row := range email.Attachments {
		if i >= len(msg.Attachments) {
			break
		}
		key := objectstorage.AttachmentKey(mailbox, email.ID, row.ID, row.Filename)
		if err := blobs.Put(key, row.Mimetype, bytes.NewReader(msg.Attachments[i].Data)); err != nil {
			log.Printf("Error uploading attachment blob %s: %v", key, err)
		}
	}

	log.Printf("Email stored with ID: %s (%d attachments)", email.ID, len(email.Attachments))
}

func dispositionOf(att transfer.Attachment) model.Disposition {
	if att.Disposition == "inline" {
		return model.DispositionInline
	}
	return model.DispositionAttachment
}
