package main

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/shishobooks/libris/pkg/client"
)

const dateLayout = "2006-01-02"

func newTable() *tabwriter.Writer {
	return tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
}

func printBooks(list *client.BookList) {
	w := newTable()
	fmt.Fprintln(w, "ID\tTITLE\tAUTHOR\tISBN\tAVAILABLE")
	for _, b := range list.Books {
		fmt.Fprintf(w, "%d\t%s\t%s\t%s\t%d/%d\n", b.ID, b.Title, b.Author, b.ISBN, b.AvailableCopies, b.TotalCopies)
	}
	w.Flush()
	fmt.Printf("%d of %d books\n", len(list.Books), list.Total)
}

func printStudents(list *client.StudentList) {
	w := newTable()
	fmt.Fprintln(w, "ID\tNAME\tROLL NO\tDEPARTMENT\tEMAIL")
	for _, s := range list.Students {
		fmt.Fprintf(w, "%d\t%s\t%s\t%s\t%s\n", s.ID, s.Name, s.RollNo, s.Department, s.Email)
	}
	w.Flush()
	fmt.Printf("%d of %d students\n", len(list.Students), list.Total)
}

func printRecords(list *client.RecordList) {
	w := newTable()
	fmt.Fprintln(w, "ID\tBOOK\tSTUDENT\tISSUED\tDUE\tRETURNED\tSTATUS")
	for _, r := range list.Records {
		book, student := fmt.Sprint(r.BookID), fmt.Sprint(r.StudentID)
		if r.Book != nil {
			book = r.Book.Title
		}
		if r.Student != nil {
			student = r.Student.Name
		}
		returned := "-"
		if r.ReturnDate != nil {
			returned = r.ReturnDate.Format(dateLayout)
		}
		status := r.Status
		if r.Overdue {
			status += " (overdue)"
		}
		fmt.Fprintf(w, "%d\t%s\t%s\t%s\t%s\t%s\t%s\n", r.ID, book, student, r.IssueDate.Format(dateLayout), r.DueDate.Format(dateLayout), returned, status)
	}
	w.Flush()
	fmt.Printf("%d of %d records\n", len(list.Records), list.Total)
}
