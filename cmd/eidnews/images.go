package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/AlexLem84/east-idaho-news-app/internal/images"
)

var (
	imagesWidth int
	imagesSmall bool
)

var imagesCmd = &cobra.Command{
	Use:   "images <post-id>",
	Short: "List image candidates for a post, best first",
	Args:  cobra.ExactArgs(1),
	RunE:  runImages,
}

func init() {
	imagesCmd.Flags().IntVarP(&imagesWidth, "width", "w", 0, "target display width in pixels (default images.target_width)")
	imagesCmd.Flags().BoolVar(&imagesSmall, "small", false, "prefer the smaller tier when two are equally close")
}

func runImages(cmd *cobra.Command, args []string) error {
	id, err := strconv.ParseInt(args[0], 10, 64)
	if err != nil || id <= 0 {
		return fmt.Errorf("invalid post id %q", args[0])
	}

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	width := imagesWidth
	if width <= 0 {
		width = cfg.Images.TargetWidth
	}

	svc, err := newServices(cfg, false)
	if err != nil {
		return err
	}
	defer svc.Close()

	item, err := svc.client.Post(cmd.Context(), id)
	if err != nil {
		return err
	}

	r := images.Resolver{PreferSmall: imagesSmall || cfg.Images.PreferSmall}
	list := r.Resolve(item, width)
	if len(list) == 0 {
		fmt.Printf("%s: no images\n", item.PlainTitle())
		return nil
	}
	fmt.Println(item.PlainTitle())
	for i, u := range list {
		fmt.Printf("%2d. %s\n", i+1, u)
	}
	return nil
}
