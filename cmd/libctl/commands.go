package main

import (
	"fmt"
	"strings"

	"github.com/shishobooks/libris/pkg/client"
	"github.com/shishobooks/libris/pkg/models"
	"github.com/shishobooks/libris/pkg/session"
	"github.com/urfave/cli/v2"
)

func idArg(c *cli.Context) (int, error) {
	var id int
	if _, err := fmt.Sscan(c.Args().First(), &id); err != nil || id <= 0 {
		return 0, cli.Exit("expected a numeric id argument", 1)
	}
	return id, nil
}

func listFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{Name: "search", Aliases: []string{"q"}},
		&cli.IntFlag{Name: "limit", Value: 50},
		&cli.IntFlag{Name: "offset"},
	}
}

func listOptions(c *cli.Context) client.ListOptions {
	return client.ListOptions{Search: c.String("search"), Limit: c.Int("limit"), Offset: c.Int("offset")}
}

func bookFlags(required bool) []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{Name: "title", Required: required},
		&cli.StringFlag{Name: "author", Required: required},
		&cli.StringFlag{Name: "isbn", Required: required},
		&cli.IntFlag{Name: "copies", Value: 1},
	}
}

func commands() []*cli.Command {
	return []*cli.Command{
		{
			Name:  "login",
			Usage: "log in and store the session",
			Flags: []cli.Flag{
				&cli.StringFlag{Name: "email", Required: true},
				&cli.StringFlag{Name: "password", Required: true, EnvVars: []string{"LIBRIS_PASSWORD"}},
			},
			Action: page("/login", func(c *cli.Context, d *desk) error {
				sess, err := d.client.Login(c.Context, c.String("email"), c.String("password"))
				if err != nil {
					return err
				}
				fmt.Printf("Logged in as %s (%s). Home: %s\n", sess.User.Name, sess.User.Role, session.Home(sess.User.Role))
				fmt.Printf("Session saved to %s\n", d.store.Path())
				return nil
			}),
		},
		{
			Name:  "register",
			Usage: "create an account and log in",
			Flags: []cli.Flag{
				&cli.StringFlag{Name: "name", Required: true},
				&cli.StringFlag{Name: "email", Required: true},
				&cli.StringFlag{Name: "password", Required: true, EnvVars: []string{"LIBRIS_PASSWORD"}},
				&cli.StringFlag{Name: "role", Usage: "admin, librarian or student"},
			},
			Action: page("/register", func(c *cli.Context, d *desk) error {
				sess, err := d.client.Register(c.Context, client.RegisterRequest{
					Name:     c.String("name"),
					Email:    c.String("email"),
					Password: c.String("password"),
					Role:     c.String("role"),
				})
				if err != nil {
					return err
				}
				fmt.Printf("Registered %s (%s)\n", sess.User.Email, sess.User.Role)
				return nil
			}),
		},
		{
			Name:  "logout",
			Usage: "forget the stored session",
			Action: func(c *cli.Context) error {
				d, err := newDesk(c)
				if err != nil {
					return err
				}
				if err := d.client.Logout(); err != nil {
					return err
				}
				fmt.Println("Logged out")
				return nil
			},
		},
		{
			Name:  "whoami",
			Usage: "show the logged-in user",
			Action: page(session.RootPath, func(_ *cli.Context, d *desk) error {
				u := d.client.Session().User
				fmt.Printf("%s <%s> %s\n", u.Name, u.Email, u.Role)
				return nil
			}),
		},
		{
			Name:   "dashboard",
			Usage:  "show the dashboard for your role",
			Action: page(session.RootPath, dashboardAction),
		},
		{
			Name:  "books",
			Usage: "browse and manage the catalog",
			Subcommands: []*cli.Command{
				{
					Name:  "list",
					Flags: listFlags(),
					Action: page("/books", func(c *cli.Context, d *desk) error {
						list, err := d.client.ListBooks(c.Context, listOptions(c))
						if err != nil {
							return err
						}
						printBooks(list)
						return nil
					}),
				},
				{
					Name:  "add",
					Flags: bookFlags(true),
					Action: page("/books/add", func(c *cli.Context, d *desk) error {
						book, err := d.client.CreateBook(c.Context, client.BookInput{
							Title:       c.String("title"),
							Author:      c.String("author"),
							ISBN:        c.String("isbn"),
							TotalCopies: c.Int("copies"),
						})
						if err != nil {
							return err
						}
						fmt.Printf("Added book %d: %s\n", book.ID, book.Title)
						return nil
					}),
				},
				{
					Name:      "update",
					ArgsUsage: "<id>",
					Flags:     bookFlags(false),
					Action: page("/books/add", func(c *cli.Context, d *desk) error {
						id, err := idArg(c)
						if err != nil {
							return err
						}
						book, err := d.client.GetBook(c.Context, id)
						if err != nil {
							return err
						}
						in := client.BookInput{Title: book.Title, Author: book.Author, ISBN: book.ISBN, TotalCopies: book.TotalCopies}
						if c.IsSet("title") {
							in.Title = c.String("title")
						}
						if c.IsSet("author") {
							in.Author = c.String("author")
						}
						if c.IsSet("isbn") {
							in.ISBN = c.String("isbn")
						}
						if c.IsSet("copies") {
							in.TotalCopies = c.Int("copies")
						}
						book, err = d.client.UpdateBook(c.Context, id, in)
						if err != nil {
							return err
						}
						fmt.Printf("Updated book %d: %d of %d copies available\n", book.ID, book.AvailableCopies, book.TotalCopies)
						return nil
					}),
				},
				{
					Name:      "delete",
					ArgsUsage: "<id>",
					Action: page("/books/add", func(c *cli.Context, d *desk) error {
						id, err := idArg(c)
						if err != nil {
							return err
						}
						if err := d.client.DeleteBook(c.Context, id); err != nil {
							return err
						}
						fmt.Printf("Deleted book %d\n", id)
						return nil
					}),
				},
			},
		},
		{
			Name:  "students",
			Usage: "browse and manage the student roster",
			Subcommands: []*cli.Command{
				{
					Name:  "list",
					Flags: listFlags(),
					Action: page("/students", func(c *cli.Context, d *desk) error {
						list, err := d.client.ListStudents(c.Context, listOptions(c))
						if err != nil {
							return err
						}
						printStudents(list)
						return nil
					}),
				},
				{
					Name: "add",
					Flags: []cli.Flag{
						&cli.StringFlag{Name: "name", Required: true},
						&cli.StringFlag{Name: "roll-no", Required: true},
						&cli.StringFlag{Name: "department", Required: true},
						&cli.StringFlag{Name: "email", Required: true},
						&cli.StringFlag{Name: "join-date", Usage: "YYYY-MM-DD"},
					},
					Action: page("/students/add", func(c *cli.Context, d *desk) error {
						student, err := d.client.CreateStudent(c.Context, client.StudentInput{
							Name:       c.String("name"),
							RollNo:     c.String("roll-no"),
							Department: c.String("department"),
							Email:      c.String("email"),
							JoinDate:   c.String("join-date"),
						})
						if err != nil {
							return err
						}
						fmt.Printf("Added student %d: %s\n", student.ID, student.Name)
						return nil
					}),
				},
				{
					Name:      "update",
					ArgsUsage: "<id>",
					Flags: []cli.Flag{
						&cli.StringFlag{Name: "name"},
						&cli.StringFlag{Name: "roll-no"},
						&cli.StringFlag{Name: "department"},
						&cli.StringFlag{Name: "email"},
						&cli.StringFlag{Name: "join-date"},
					},
					Action: page("/students", func(c *cli.Context, d *desk) error {
						id, err := idArg(c)
						if err != nil {
							return err
						}
						set := func(name string) *string {
							if !c.IsSet(name) {
								return nil
							}
							v := c.String(name)
							return &v
						}
						student, err := d.client.UpdateStudent(c.Context, id, client.StudentUpdate{
							Name:       set("name"),
							RollNo:     set("roll-no"),
							Department: set("department"),
							Email:      set("email"),
							JoinDate:   set("join-date"),
						})
						if err != nil {
							return err
						}
						fmt.Printf("Updated student %d: %s\n", student.ID, student.Name)
						return nil
					}),
				},
				{
					Name:      "delete",
					ArgsUsage: "<id>",
					Action: page("/students", func(c *cli.Context, d *desk) error {
						id, err := idArg(c)
						if err != nil {
							return err
						}
						if err := d.client.DeleteStudent(c.Context, id); err != nil {
							return err
						}
						fmt.Printf("Deleted student %d\n", id)
						return nil
					}),
				},
				{
					Name:      "history",
					ArgsUsage: "<id>",
					Action: page("/students", func(c *cli.Context, d *desk) error {
						id, err := idArg(c)
						if err != nil {
							return err
						}
						list, err := d.client.StudentHistory(c.Context, id)
						if err != nil {
							return err
						}
						printRecords(list)
						return nil
					}),
				},
			},
		},
		{
			Name:  "issue",
			Usage: "lend a book to a student",
			Flags: []cli.Flag{
				&cli.IntFlag{Name: "student", Required: true},
				&cli.IntFlag{Name: "book", Required: true},
			},
			Action: page("/issue-book", func(c *cli.Context, d *desk) error {
				record, err := d.client.Issue(c.Context, c.Int("student"), c.Int("book"))
				if err != nil {
					return err
				}
				fmt.Printf("Issued record %d, due %s\n", record.ID, record.DueDate.Format(dateLayout))
				return nil
			}),
		},
		{
			Name:      "return",
			Usage:     "take a book back",
			ArgsUsage: "<record id>",
			Action: page("/return-book", func(c *cli.Context, d *desk) error {
				id, err := idArg(c)
				if err != nil {
					return err
				}
				record, err := d.client.Return(c.Context, id)
				if err != nil {
					return err
				}
				fmt.Printf("Returned record %d\n", record.ID)
				return nil
			}),
		},
		{
			Name:  "records",
			Usage: "list borrow records",
			Flags: []cli.Flag{
				&cli.StringFlag{Name: "status", Usage: strings.Join([]string{models.StatusIssued, models.StatusReturned}, " or ")},
				&cli.IntFlag{Name: "student"},
				&cli.IntFlag{Name: "book"},
				&cli.BoolFlag{Name: "overdue"},
				&cli.IntFlag{Name: "limit", Value: 50},
				&cli.IntFlag{Name: "offset"},
			},
			Action: page("/return-book", func(c *cli.Context, d *desk) error {
				list, err := d.client.ListRecords(c.Context, client.RecordFilter{
					Status:    strings.ToUpper(c.String("status")),
					StudentID: c.Int("student"),
					BookID:    c.Int("book"),
					Overdue:   c.Bool("overdue"),
					Limit:     c.Int("limit"),
					Offset:    c.Int("offset"),
				})
				if err != nil {
					return err
				}
				printRecords(list)
				return nil
			}),
		},
		{
			Name:  "my-books",
			Usage: "show your own borrow history",
			Action: page("/my-books", func(c *cli.Context, d *desk) error {
				list, err := d.client.MyHistory(c.Context)
				if err != nil {
					return err
				}
				printRecords(list)
				return nil
			}),
		},
	}
}

func dashboardAction(c *cli.Context, d *desk) error {
	sess := d.client.Session()
	if session.Home(sess.User.Role) == "/student-dashboard" {
		stats, err := d.client.MyStats(c.Context)
		if err != nil {
			return err
		}
		fmt.Printf("Issued: %d\nOverdue: %d\nReturned: %d\n", stats.IssuedBooks, stats.OverdueBooks, stats.ReturnedBooks)
		return nil
	}

	stats, err := d.client.Stats(c.Context)
	if err != nil {
		return err
	}
	fmt.Printf("Total copies: %d\nIssued: %d\nAvailable: %d\nOverdue: %d\n", stats.TotalBooks, stats.IssuedBooks, stats.AvailableBooks, stats.OverdueBooks)
	return nil
}
