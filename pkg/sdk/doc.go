// Package billocr provides a Go client that extracts text and bill fields
// from images and PDFs in process, without running the HTTP service.
//
// Images are OCRed with tesseract. PDFs use their embedded text layer when
// any page has one; otherwise the first pages are rendered with pdftoppm
// and OCRed.
//
//	client, _ := billocr.New(billocr.WithTesseract("", "eng"))
//	res, err := client.ExtractFile(ctx, "receipt.png")
//	if errors.Is(err, billocr.ErrInvalidFileType) {
//	    // not an image or PDF
//	}
//	if res.Fields.Total != nil {
//	    fmt.Println(*res.Fields.Total)
//	}
package billocr
