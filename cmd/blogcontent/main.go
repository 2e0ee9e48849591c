package main

import (
	"fmt"
	"os"
)

// version is set at build time via ldflags.
var version = "dev"

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	var err error
	switch cmd, args := os.Args[1], os.Args[2:]; cmd {
	case "serve":
		err = runServe(args)
	case "sync":
		err = runSync(args)
	case "query":
		err = runQuery(args, os.Stdout)
	case "new":
		if len(args) < 1 {
			fmt.Fprintln(os.Stderr, "Usage: blogcontent new <dir>")
			os.Exit(1)
		}
		err = runNew(args[0])
	case "version":
		fmt.Printf("blogcontent %s\n", version)
	case "help", "-h", "--help":
		printUsage()
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n\n", cmd)
		printUsage()
		os.Exit(1)
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Println(`blogcontent - A Markdown content blog built with Go, Echo, and templ

Usage:
  blogcontent <command> [arguments]

Commands:
  serve [-config file]                      Sync the content directory and serve the site
  sync [-config file]                       Load the content directory into the database
  query [-config file] [-collection name] <params-json>
                                            Print matching posts as JSON
  new <dir>                                 Create a new content site
  version                                   Print the blogcontent version
  help                                      Show this help message

-config defaults to $BLOGCONTENT_CONFIG. Environment variables and a .env file
override values from the config file.

Examples:
  blogcontent new myblog
  blogcontent serve -config myblog/config.yaml
  blogcontent query '{"where":[{"tags":{"$contains":"go"}}],"sort":[{"date":-1}],"limit":5}'`)
}
