package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/Veraticus/pennywise/internal/cli"
	"github.com/Veraticus/pennywise/internal/config"
	"github.com/Veraticus/pennywise/internal/files"
	"github.com/Veraticus/pennywise/internal/model"
	"github.com/Veraticus/pennywise/internal/stats"
	"github.com/spf13/cobra"
)

func documentsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "documents",
		Short: "Manage financial documents",
		Long:  `Upload, list, tag, and remove stored financial documents such as statements and receipts.`,
	}

	cmd.AddCommand(listDocumentsCmd())
	cmd.AddCommand(uploadDocumentCmd())
	cmd.AddCommand(updateDocumentCmd())
	cmd.AddCommand(removeDocumentCmd())

	return cmd
}

func listDocumentsCmd() *cobra.Command {
	var (
		query    string
		category string
	)

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List documents",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()

			tracker, s, err := initTracker(ctx)
			if err != nil {
				return err
			}
			defer s.Close()

			docs := stats.FilterDocuments(tracker.Documents.Snapshot(), query, category)
			if len(docs) == 0 {
				fmt.Println(cli.InfoStyle.Render("No documents found."))
				return nil
			}

			w := newTable()
			defer w.Flush()

			fmt.Fprintln(w, "ID\tTITLE\tCATEGORY\tTAGS\tUPLOADED")
			for _, d := range docs {
				fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n",
					d.ID, d.Title, d.Category, strings.Join(d.Tags, ","), d.UploadDate.Format(dateLayout))
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&query, "search", "s", "", "filter by title, filename, or tag")
	cmd.Flags().StringVar(&category, "category", "", "restrict to an exact category")
	return cmd
}

func uploadDocumentCmd() *cobra.Command {
	var (
		title    string
		category string
		tags     []string
	)

	cmd := &cobra.Command{
		Use:   "upload <file>",
		Short: "Upload a document",
		Long:  `Upload a local file to blob storage and record it as a document.`,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			path := config.ExpandPath(args[0])

			f, err := os.Open(path)
			if err != nil {
				return fmt.Errorf("failed to open %s: %w", path, err)
			}
			defer f.Close()

			info, err := f.Stat()
			if err != nil {
				return fmt.Errorf("failed to stat %s: %w", path, err)
			}

			filesCfg, err := config.LoadFilesConfig()
			if err != nil {
				return err
			}
			blobs, err := files.NewClient(*filesCfg)
			if err != nil {
				return err
			}

			tracker, s, err := initTracker(ctx)
			if err != nil {
				return err
			}
			defer s.Close()

			fileName := filepath.Base(path)
			objectPath := files.ObjectPath(tracker.Documents.UserID(), fileName)
			fileURL, err := blobs.Upload(ctx, objectPath, f, info.Size())
			if err != nil {
				return fmt.Errorf("failed to upload file: %w", err)
			}

			if title == "" {
				title = fileName
			}
			created, err := tracker.Documents.Create(ctx, model.Document{
				UserID:   tracker.Documents.UserID(),
				Title:    title,
				Category: category,
				FileURL:  fileURL,
				FileName: fileName,
				FileSize: info.Size(),
				Tags:     tags,
			})
			if err != nil {
				// The blob is orphaned if the record fails; clean it up.
				_ = blobs.Remove(ctx, objectPath)
				return fmt.Errorf("failed to record document: %w", err)
			}

			fmt.Println(cli.FormatSuccess(fmt.Sprintf("Uploaded %s (%s)", created.Title, created.ID)))
			return nil
		},
	}

	cmd.Flags().StringVar(&title, "title", "", "document title (defaults to the filename)")
	cmd.Flags().StringVar(&category, "category", "", "document category")
	cmd.Flags().StringSliceVar(&tags, "tag", nil, "tag (repeatable)")
	return cmd
}

func updateDocumentCmd() *cobra.Command {
	var (
		title    string
		category string
		tags     []string
	)

	cmd := &cobra.Command{
		Use:   "update <id>",
		Short: "Update a document's title, category, or tags",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			var patch model.DocumentPatch
			if cmd.Flags().Changed("title") {
				patch.Title = &title
			}
			if cmd.Flags().Changed("category") {
				patch.Category = &category
			}
			if cmd.Flags().Changed("tag") {
				patch.Tags = &tags
			}

			tracker, s, err := initTracker(ctx)
			if err != nil {
				return err
			}
			defer s.Close()

			updated, err := tracker.Documents.Update(ctx, args[0], patch)
			if err != nil {
				return fmt.Errorf("failed to update document: %w", err)
			}

			fmt.Println(cli.FormatSuccess(fmt.Sprintf("Updated %s", updated.Title)))
			return nil
		},
	}

	cmd.Flags().StringVar(&title, "title", "", "document title")
	cmd.Flags().StringVar(&category, "category", "", "document category")
	cmd.Flags().StringSliceVar(&tags, "tag", nil, "replacement tag set (repeatable)")
	return cmd
}

func removeDocumentCmd() *cobra.Command {
	var keepFile bool

	cmd := &cobra.Command{
		Use:   "remove <id>",
		Short: "Remove a document",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			tracker, s, err := initTracker(ctx)
			if err != nil {
				return err
			}
			defer s.Close()

			doc, ok := tracker.Documents.Find(args[0])
			if err := tracker.Documents.Delete(ctx, args[0]); err != nil {
				return fmt.Errorf("failed to remove document: %w", err)
			}

			if ok && !keepFile {
				if filesCfg, cfgErr := config.LoadFilesConfig(); cfgErr == nil {
					if blobs, blobErr := files.NewClient(*filesCfg); blobErr == nil {
						objectPath := strings.TrimPrefix(doc.FileURL, strings.TrimRight(filesCfg.BaseURL, "/")+"/")
						if remErr := blobs.Remove(ctx, objectPath); remErr != nil {
							fmt.Println(cli.FormatWarning(fmt.Sprintf("Record removed, but the stored file was not: %v", remErr)))
						}
					}
				}
			}

			fmt.Println(cli.FormatSuccess("Document removed"))
			return nil
		},
	}

	cmd.Flags().BoolVar(&keepFile, "keep-file", false, "leave the stored file in blob storage")
	return cmd
}
